//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chattin/domain"
	"chattin/errors"
)

type IUserRepository interface {
	CreateUser(username, passwordHash string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	ListUsers() ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// userRecord is the stored shape. Kept separate from domain.User so the
// storage encoding can evolve without touching the domain.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func usernameKey(username string) []byte { return []byte("user:name:" + username) }
func userIDKey(id string) []byte         { return []byte("user:id:" + id) }

// CreateUser persists a new user. The username key is the uniqueness
// check and a secondary id key points back to the username so lookups by
// identity stay a single Get.
func (u *UserRepository) CreateUser(username, passwordHash string) (domain.User, error) {
	record := userRecord{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(usernameKey(username), data); err != nil {
			return err
		}
		return txn.Set(userIDKey(record.ID), []byte(username))
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(record), nil
}

func (u *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var record userRecord

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	return toUser(record), nil
}

func (u *UserRepository) GetUserByID(id string) (domain.User, error) {
	var username string

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userIDKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			username = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	return u.GetUserByUsername(username)
}

// ListUsers returns every registered user via a prefix scan over the
// username keys.
func (u *UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User

	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:name:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record userRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				users = append(users, toUser(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return users, err
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:           record.ID,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}
