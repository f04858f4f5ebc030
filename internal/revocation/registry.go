// Package revocation tracks administratively banned user identities. Bans
// invalidate every outstanding token for an identity from the moment of
// insertion, independent of token expiry.
package revocation

import "sync"

// Registry is the in-process banned set consulted on every authenticated
// request. Reads vastly outnumber writes, so a plain RWMutex over a map is
// enough; within the process the set is linearizable.
type Registry struct {
	mu     sync.RWMutex
	banned map[int64]struct{}
}

func NewRegistry() *Registry {
	return &Registry{banned: make(map[int64]struct{})}
}

// Seed replaces nothing and inserts the given ids; used at startup to load
// persisted bans before the server accepts traffic.
func (r *Registry) Seed(ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.banned[id] = struct{}{}
	}
}

// Ban inserts the identity. Idempotent.
func (r *Registry) Ban(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[userID] = struct{}{}
}

// Unban removes the identity. Idempotent.
func (r *Registry) Unban(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.banned, userID)
}

func (r *Registry) IsBanned(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.banned[userID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.banned)
}
