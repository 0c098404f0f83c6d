//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"chattin/domain"
)

// MessageSink is the outbound handle of one connection session. Consume
// must never block the caller for long: implementations hand the message
// off to the session's write path (bounded queue) and fail fast when the
// session is gone or saturated.
type MessageSink interface {
	Consume(ctx context.Context, msg domain.Message) error
	// Close tears down the owning session. Used when a newer connection
	// for the same identity supersedes this one. Idempotent.
	Close()
}

// IRegistry is the single source of truth for which users are reachable.
// An entry exists if and only if its sink currently accepts writes.
type IRegistry interface {
	// Register installs sink for userID and returns the superseded sink,
	// if any. The caller decides what to do with it (policy here: close it).
	Register(userID string, sink MessageSink) MessageSink
	// Unregister removes the entry only if it still holds this exact sink,
	// so a replaced session's deferred cleanup cannot evict its successor.
	Unregister(userID string, sink MessageSink)
	Lookup(userID string) (MessageSink, bool)
	// Active returns a snapshot of registered identities. It may be stale
	// by the time the caller reads it; informational use only.
	Active() []string
}

// IRelay persists a message and attempts live delivery to the recipient.
type IRelay interface {
	Relay(ctx context.Context, senderID, recipientID, content string) (domain.Message, error)
}

// MessageIndex receives every persisted message for secondary indexing.
// Indexing is best-effort and must never fail a relay.
type MessageIndex interface {
	Index(msg domain.Message) error
}
