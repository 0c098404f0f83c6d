package repositories

import (
	"chattin/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessage(senderID, recipientID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   at,
	}
}

func Test_Record_Conversation_Both_Directions(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	alice := uuid.NewString()
	bob := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	stored := []domain.Message{
		newMessage(alice, bob, "hi bob", at),
		newMessage(bob, alice, "hi alice", at.Add(1*time.Minute)),
		newMessage(alice, bob, "how are you", at.Add(2*time.Minute)),
	}
	for _, message := range stored {
		req.NoError(repository.StoreMessage(message))
	}

	// Both participants see the same dialog, oldest first
	fetched, err := repository.GetConversation(alice, bob)
	req.NoError(err)
	req.Equal(stored, fetched)

	flipped, err := repository.GetConversation(bob, alice)
	req.NoError(err)
	req.Equal(stored, flipped)
}

func Test_Conversation_Limit_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(openTestDB(t), slog.Default(), &limit)

	alice := uuid.NewString()
	bob := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	stored := []domain.Message{
		newMessage(alice, bob, "first", at),
		newMessage(alice, bob, "second", at.Add(1*time.Minute)),
		newMessage(alice, bob, "third", at.Add(2*time.Minute)),
	}
	for _, message := range stored {
		req.NoError(repository.StoreMessage(message))
	}

	fetched, err := repository.GetConversation(alice, bob)
	req.NoError(err)

	// The oldest message falls off, order stays chronological
	req.Len(fetched, limit)
	req.Equal("second", fetched[0].Content)
	req.Equal("third", fetched[1].Content)
}

func Test_Conversations_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	alice := uuid.NewString()
	bob := uuid.NewString()
	clara := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	req.NoError(repository.StoreMessage(newMessage(alice, bob, "for bob", at)))
	req.NoError(repository.StoreMessage(newMessage(alice, clara, "for clara", at)))

	fetched, err := repository.GetConversation(alice, bob)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Content)
}

func Test_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	fetched, err := repository.GetConversation(uuid.NewString(), uuid.NewString())
	req.NoError(err)
	req.Empty(fetched)
}

func Test_Recent_Partners_Most_Recent_First(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	alice := uuid.NewString()
	bob := uuid.NewString()
	clara := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Given alice talked to bob, then to clara
	req.NoError(repository.StoreMessage(newMessage(alice, bob, "old dialog", at)))
	req.NoError(repository.StoreMessage(newMessage(clara, alice, "new dialog", at.Add(1*time.Hour))))

	partners, err := repository.RecentPartners(alice)
	req.NoError(err)

	// Then clara comes first, and both sides carry the last-activity time
	req.Len(partners, 2)
	req.Equal(clara, partners[0].UserID)
	req.Equal(at.Add(1*time.Hour), partners[0].LastActive)
	req.Equal(bob, partners[1].UserID)
	req.Equal(at, partners[1].LastActive)

	// And the index was written for the other side too
	bobPartners, err := repository.RecentPartners(bob)
	req.NoError(err)
	req.Len(bobPartners, 1)
	req.Equal(alice, bobPartners[0].UserID)
}

func Test_Recent_Partner_Entry_Is_Refreshed(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	alice := uuid.NewString()
	bob := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Millisecond)

	req.NoError(repository.StoreMessage(newMessage(alice, bob, "first", at)))
	req.NoError(repository.StoreMessage(newMessage(alice, bob, "second", at.Add(5*time.Minute))))

	partners, err := repository.RecentPartners(alice)
	req.NoError(err)

	// One entry per partner, carrying the newest timestamp
	req.Len(partners, 1)
	req.Equal(at.Add(5*time.Minute), partners[0].LastActive)
}
