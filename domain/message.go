// Package domain contains core concepts of the messaging system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable direct message between two users.
// Once appended to the store it is owned by the store; the relay only
// holds a transient copy while delivering it.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	RecipientID string
	Content     string
	CreatedAt   time.Time
}

// MessageIntent is a decoded inbound frame: what a connected client wants
// to send. The sender is deliberately absent, it is always taken from the
// authenticated session, never from the payload.
type MessageIntent struct {
	RecipientID string
	Content     string
}
