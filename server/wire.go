package server

import (
	"time"

	"github.com/samber/lo"

	"chattin/domain"
)

// Wire shapes exchanged with clients, over both the REST endpoints and
// the WebSocket.

// MessageIntent is the inbound send frame. There is deliberately no
// sender field: the sender is always the authenticated session identity.
type MessageIntent struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// MessageEvent is a delivered or persisted message as seen by clients.
type MessageEvent struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorEvent reports a per-frame failure to the session that caused it.
// The session itself stays up.
type ErrorEvent struct {
	Error string `json:"error"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

type HistoryResponse struct {
	Messages []MessageEvent `json:"messages"`
}

func toMessageEvent(message domain.Message) MessageEvent {
	return MessageEvent{
		ID:          message.ID.String(),
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		CreatedAt:   message.CreatedAt,
	}
}

func toMessageEvents(messages []domain.Message) []MessageEvent {
	return lo.Map(messages, func(item domain.Message, _ int) MessageEvent {
		return toMessageEvent(item)
	})
}

func toUserResponse(user domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username}
}

func toUserResponses(users []domain.User) []UserResponse {
	return lo.Map(users, func(item domain.User, _ int) UserResponse {
		return toUserResponse(item)
	})
}
