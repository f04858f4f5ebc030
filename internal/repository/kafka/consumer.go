package kafka

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/quillboard/quillboard/internal/revocation"
)

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	Logger  *zap.Logger
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}

	// The feed is a broadcast, not a work queue: every replica must see
	// every ban. A shared group would hand each event to a single member,
	// so each process joins its own group derived from the configured base.
	groupID := instanceGroupID(cfg.GroupID)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: groupID,
		Topic:   cfg.Topic,
		// Replay from the earliest retained offset so a fresh replica sees
		// bans issued while it was down, on top of the store seed.
		StartOffset:           kafka.FirstOffset,
		WatchPartitionChanges: true,

		MinBytes:          1e3,
		MaxBytes:          10e6,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	log := cfg.Logger.With(
		zap.String("component", "kafka.consumer"),
		zap.String("topic", cfg.Topic),
		zap.String("group", groupID),
	)

	return &Consumer{reader: r, log: log}
}

// instanceGroupID appends the host name and a random suffix to the
// configured base, giving each process a consumer group of its own.
// Combined with StartOffset=FirstOffset, a fresh instance replays the
// retained feed on top of the store seed.
func instanceGroupID(base string) string {
	if base == "" {
		base = "forum-server"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "nohost"
	}
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%s-%s", base, host, hex.EncodeToString(b))
}

// Consume applies revocation events to the service until the context ends.
// Malformed events are logged and skipped; the feed must not wedge on one
// bad message.
func (c *Consumer) Consume(ctx context.Context, svc *revocation.Service) error {
	c.log.Info("consumer started")

	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped (ctx canceled)")
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped (ctx canceled)")
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				c.log.Debug("fetch EOF; retry", zap.Duration("backoff", backoff))
			} else {
				c.log.Warn("fetch failed; retry", zap.Error(err), zap.Duration("backoff", backoff))
			}
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = 200 * time.Millisecond

		ev, err := decodeEvent(msg.Value)
		if err != nil {
			c.log.Error("bad revocation event",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		} else {
			svc.Apply(ev)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				c.log.Info("commit interrupted by context cancel")
				return ctx.Err()
			}
			c.log.Warn("commit failed; will retry later", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
