// Package runtime holds the live-connection state and the relay pipeline.
// It orchestrates delivery without containing domain rules or transport
// details.
package runtime

import (
	"sync"

	"chattin/contract"
)

// Registry maps a connected user identity to its active delivery sink.
// It is the single source of truth for presence: an entry exists if and
// only if the sink still accepts writes. All access goes through one
// mutex; callers must not assume a Lookup and a later Consume are atomic,
// the sink can close in between.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.MessageSink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.MessageSink),
	}
}

// Register installs the sink for a user and returns the superseded sink,
// if any. A user has at most one active sink; the caller is expected to
// close the returned one so a replaced connection never lingers.
func (r *Registry) Register(userID string, sink contract.MessageSink) contract.MessageSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.sessions[userID]
	r.sessions[userID] = sink
	return previous
}

// Unregister removes the user's entry, but only if it still holds this
// exact sink. A session that was replaced by a newer connection runs its
// deferred cleanup too; comparing sinks keeps it from evicting its
// successor. Idempotent.
func (r *Registry) Unregister(userID string, sink contract.MessageSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[userID]; ok && current == sink {
		delete(r.sessions, userID)
	}
}

// Lookup returns the user's sink without blocking on the sink itself.
func (r *Registry) Lookup(userID string) (contract.MessageSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[userID]
	return sink, ok
}

// Active returns a snapshot of the currently registered identities.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	return users
}
