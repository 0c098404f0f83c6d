package runtime

import (
	"chattin/domain"
	"chattin/errors"
	"chattin/mocks"
	"chattin/moderation"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type failingSink struct{}

func (failingSink) Consume(ctx context.Context, msg domain.Message) error {
	return errors.ErrSinkFull
}

func (failingSink) Close() {}

func newTestRelay(t *testing.T, moderator *moderation.Moderator) (*Relay, *Registry, *mocks.MockIMessageRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	messages := mocks.NewMockIMessageRepository(ctrl)
	relay := NewRelay(slog.Default(), registry, messages, nil, moderator, 100*time.Millisecond)
	return relay, registry, messages
}

func TestRelay_Delivers_To_Online_Recipient(t *testing.T) {
	req := require.New(t)
	relay, registry, messages := newTestRelay(t, nil)

	senderID := uuid.NewString()
	recipientID := uuid.NewString()
	sink := &stubSink{}

	// Given the recipient is connected
	registry.Register(recipientID, sink)
	messages.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

	// When a message is relayed
	msg, err := relay.Relay(context.Background(), senderID, recipientID, "hello")

	// Then the message is durable and carries server-side identity
	req.NoError(err)
	req.NotEqual(uuid.Nil, msg.ID)
	req.Equal(senderID, msg.SenderID)
	req.Equal(recipientID, msg.RecipientID)
	req.Equal("hello", msg.Content)
	req.False(msg.CreatedAt.IsZero())

	// And the recipient received exactly that message
	req.Len(sink.received, 1)
	req.Equal(msg, sink.received[0])
}

func TestRelay_Offline_Recipient_Is_Stored_Only(t *testing.T) {
	req := require.New(t)
	relay, _, messages := newTestRelay(t, nil)

	// Given nobody is connected
	messages.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

	// When a message is relayed to an offline recipient
	msg, err := relay.Relay(context.Background(), uuid.NewString(), uuid.NewString(), "catch up later")

	// Then the send still succeeds
	req.NoError(err)
	req.Equal("catch up later", msg.Content)
}

func TestRelay_Store_Failure_Surfaces_And_Skips_Delivery(t *testing.T) {
	req := require.New(t)
	relay, registry, messages := newTestRelay(t, nil)

	recipientID := uuid.NewString()
	sink := &stubSink{}
	registry.Register(recipientID, sink)

	// Given the store rejects the write
	messages.EXPECT().StoreMessage(gomock.Any()).Return(stderrors.New("disk full")).Times(1)

	// When a message is relayed
	_, err := relay.Relay(context.Background(), uuid.NewString(), recipientID, "will not survive")

	// Then the failure reaches the sender
	req.ErrorIs(err, errors.ErrStoreUnavailable)

	// And nothing was pushed: durability comes before delivery
	req.Empty(sink.received)
}

func TestRelay_Push_Failure_Is_Treated_As_Offline(t *testing.T) {
	req := require.New(t)
	relay, registry, messages := newTestRelay(t, nil)

	recipientID := uuid.NewString()

	// Given the recipient's sink refuses the push
	registry.Register(recipientID, failingSink{})
	messages.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

	// When a message is relayed
	msg, err := relay.Relay(context.Background(), uuid.NewString(), recipientID, "hello?")

	// Then the sender sees success, the message is already durable
	req.NoError(err)
	req.Equal("hello?", msg.Content)
}

func TestRelay_Censors_Content_Before_Storing(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	relay, registry, messages := newTestRelay(t, moderator)

	recipientID := uuid.NewString()
	sink := &stubSink{}
	registry.Register(recipientID, sink)

	// Then the stored record already holds the censored content
	var stored domain.Message
	messages.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(m domain.Message) error {
			stored = m
			return nil
		}).
		Times(1)

	// When a message containing a censored word is relayed
	msg, err := relay.Relay(context.Background(), uuid.NewString(), recipientID, "such a badword here")

	req.NoError(err)
	req.Equal("such a ******* here", msg.Content)
	req.Equal(msg.Content, stored.Content)
	req.Len(sink.received, 1)
	req.Equal(msg.Content, sink.received[0].Content)
}

func TestRelay_Index_Failure_Does_Not_Block_The_Message(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry()
	messages := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockMessageIndex(ctrl)
	relay := NewRelay(slog.Default(), registry, messages, index, nil, 100*time.Millisecond)

	messages.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

	// Given the search index is down
	index.EXPECT().Index(gomock.Any()).Return(stderrors.New("index unavailable")).Times(1)

	// When a message is relayed
	_, err := relay.Relay(context.Background(), uuid.NewString(), uuid.NewString(), "still goes through")

	// Then the send succeeds anyway
	req.NoError(err)
}
