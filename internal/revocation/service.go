package revocation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store is the persistent identity→banned mapping behind the in-memory
// registry. Bans survive restarts; the registry is rebuilt from ListBanned.
type Store interface {
	Ban(ctx context.Context, userID int64) error
	Unban(ctx context.Context, userID int64) error
	ListBanned(ctx context.Context) ([]int64, error)
}

// Publisher fans a ban/unban out to peer replicas. Optional; nil means
// single-process deployment.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Event is the wire form of a revocation change on the feed.
type Event struct {
	UserID int64     `json:"user_id"`
	Action string    `json:"action"` // "ban" or "unban"
	At     time.Time `json:"at"`
}

const (
	ActionBan   = "ban"
	ActionUnban = "unban"
)

// Service applies administrative bans: persist first, then flip the local
// registry, then tell the other replicas. The local flip happens even if the
// publish fails; propagation is at-least-once, not transactional.
type Service struct {
	store    Store
	registry *Registry
	pub      Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, registry *Registry, pub Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		registry: registry,
		pub:      pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Load seeds the registry from the store. Called once before serving.
func (s *Service) Load(ctx context.Context) error {
	ids, err := s.store.ListBanned(ctx)
	if err != nil {
		return fmt.Errorf("list banned: %w", err)
	}
	s.registry.Seed(ids)
	s.log.Info("revocation registry loaded", zap.Int("banned", len(ids)))
	return nil
}

func (s *Service) Ban(ctx context.Context, userID int64) error {
	if err := s.store.Ban(ctx, userID); err != nil {
		return fmt.Errorf("persist ban: %w", err)
	}
	s.registry.Ban(userID)
	s.log.Info("user banned", zap.Int64("user_id", userID))
	s.publish(ctx, Event{UserID: userID, Action: ActionBan, At: s.now()})
	return nil
}

func (s *Service) Unban(ctx context.Context, userID int64) error {
	if err := s.store.Unban(ctx, userID); err != nil {
		return fmt.Errorf("persist unban: %w", err)
	}
	s.registry.Unban(userID)
	s.log.Info("user unbanned", zap.Int64("user_id", userID))
	s.publish(ctx, Event{UserID: userID, Action: ActionUnban, At: s.now()})
	return nil
}

// Apply folds a feed event from a peer replica into the local registry.
func (s *Service) Apply(ev Event) {
	switch ev.Action {
	case ActionBan:
		s.registry.Ban(ev.UserID)
	case ActionUnban:
		s.registry.Unban(ev.UserID)
	default:
		s.log.Warn("unknown revocation action", zap.String("action", ev.Action))
	}
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Error("publish revocation event",
			zap.Int64("user_id", ev.UserID),
			zap.String("action", ev.Action),
			zap.Error(err))
	}
}
