// Package domain contains core concepts of the messaging system.
// This file defines User entities. No runtime, network, or UI logic
// should be added here.
package domain

import "time"

// User is a registered account. ID is assigned at registration and is
// the identity every other component refers to.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Partner is a user the owner of a conversation list has exchanged
// messages with, together with the time of the last exchange.
type Partner struct {
	UserID     string
	LastActive time.Time
}
