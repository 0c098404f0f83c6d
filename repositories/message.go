//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chattin/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetConversation(userA, userB string) ([]domain.Message, error)
	RecentPartners(userID string) ([]domain.Partner, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// messageRecord is the stored shape of a message.
type messageRecord struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConversationKey returns the canonical key of the unordered user pair,
// so both directions of a dialog land under the same prefix.
func ConversationKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

// messageKey is "msg:{conversation}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padded nanosecond timestamp makes lexicographical
//     order chronological order.
//  2. The UUID suffix disambiguates two messages landing on the same
//     nanosecond.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		ConversationKey(message.SenderID, message.RecipientID),
		message.CreatedAt.UnixNano(),
		message.ID,
	))
}

// partnerKey indexes "who did this user last talk to, and when". One entry
// per direction, overwritten on every message, holding the padded
// timestamp as value.
func partnerKey(owner, partner string) []byte {
	return []byte(fmt.Sprintf("part:%s:%s", owner, partner))
}

// StoreMessage appends a message and refreshes the partner recency index
// for both participants in the same transaction.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	at := []byte(fmt.Sprintf("%019d", message.CreatedAt.UnixNano()))

	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message), data); err != nil {
			return err
		}
		if err := txn.Set(partnerKey(message.SenderID, message.RecipientID), at); err != nil {
			return err
		}
		return txn.Set(partnerKey(message.RecipientID, message.SenderID), at)
	})
}

// GetConversation retrieves the messages exchanged between two users in
// chronological order. When a limit is configured, only the most recent
// messages are kept (scanned in reverse, then flipped back).
func (m MessageRepository) GetConversation(userA, userB string) ([]domain.Message, error) {
	prefix := []byte("msg:" + ConversationKey(userA, userB) + ":")
	var raw [][]byte

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this conversation, then
		// walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var record messageRecord
		if err = json.Unmarshal(raw[i], &record); err != nil {
			return nil, err
		}
		message, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// RecentPartners lists the users this user has exchanged messages with,
// most recent dialog first.
func (m MessageRepository) RecentPartners(userID string) ([]domain.Partner, error) {
	prefix := []byte("part:" + userID + ":")
	prefixLen := len(prefix)
	var partners []domain.Partner

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			partner := string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				nanos, err := strconv.ParseInt(strings.TrimLeft(string(value), "0"), 10, 64)
				if err != nil {
					return err
				}
				partners = append(partners, domain.Partner{
					UserID:     partner,
					LastActive: time.Unix(0, nanos).UTC(),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(partners, func(i, j int) bool {
		return partners[i].LastActive.After(partners[j].LastActive)
	})
	return partners, nil
}

func fromMessage(message domain.Message) messageRecord {
	return messageRecord{
		ID:          message.ID.String(),
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		CreatedAt:   message.CreatedAt,
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:          parsedID,
		SenderID:    record.SenderID,
		RecipientID: record.RecipientID,
		Content:     record.Content,
		CreatedAt:   record.CreatedAt.UTC(),
	}, nil
}
