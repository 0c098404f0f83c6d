package services

import (
	"context"
	"sort"

	"chattin/contract"
	"chattin/domain"
	"chattin/repositories"
	"chattin/search"
)

type IChatService interface {
	Send(ctx context.Context, senderID, recipientID, content string) (domain.Message, error)
	History(requesterID, withID string) ([]domain.Message, error)
	SearchMessages(ctx context.Context, query search.Query) ([]domain.Message, error)
	Partners(userID string) ([]domain.User, error)
	OnlineUsers() ([]domain.User, error)
	Users() ([]domain.User, error)
	FindUser(username string) (domain.User, error)
}

// ChatService fronts the relay engine and the read-side queries. Sending
// always goes through the relay, whether the intent arrived over the
// WebSocket or the REST endpoint, so persistence-before-delivery holds on
// both paths.
type ChatService struct {
	relay    contract.IRelay
	registry contract.IRegistry
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	index    *search.Index
}

func NewChatService(relay contract.IRelay, registry contract.IRegistry,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	index *search.Index) *ChatService {
	return &ChatService{
		relay:    relay,
		registry: registry,
		messages: messages,
		users:    users,
		index:    index,
	}
}

func (s *ChatService) Send(ctx context.Context, senderID, recipientID, content string) (domain.Message, error) {
	return s.relay.Relay(ctx, senderID, recipientID, content)
}

func (s *ChatService) History(requesterID, withID string) ([]domain.Message, error) {
	return s.messages.GetConversation(requesterID, withID)
}

func (s *ChatService) SearchMessages(ctx context.Context, query search.Query) ([]domain.Message, error) {
	return s.index.Search(ctx, query)
}

// Partners resolves the requester's conversation partners, most recent
// first. Accounts deleted since the last exchange are skipped.
func (s *ChatService) Partners(userID string) ([]domain.User, error) {
	partners, err := s.messages.RecentPartners(userID)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(partners))
	for _, partner := range partners {
		user, err := s.users.GetUserByID(partner.UserID)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// OnlineUsers resolves the presence snapshot into user records. The
// snapshot may be stale by the time the caller reads it; that is fine for
// an informational "who's online" listing.
func (s *ChatService) OnlineUsers() ([]domain.User, error) {
	active := s.registry.Active()
	sort.Strings(active)

	users := make([]domain.User, 0, len(active))
	for _, userID := range active {
		user, err := s.users.GetUserByID(userID)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *ChatService) Users() ([]domain.User, error) {
	return s.users.ListUsers()
}

func (s *ChatService) FindUser(username string) (domain.User, error) {
	return s.users.GetUserByUsername(username)
}
