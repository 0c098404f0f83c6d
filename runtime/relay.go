package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chattin/contract"
	"chattin/domain"
	"chattin/errors"
	"chattin/moderation"
	"chattin/repositories"
)

// Relay is the single synchronization point between "a message arrived"
// and "durable + delivered". Persistence always happens before any
// delivery attempt: the worst outcome of a raced disconnect is a missed
// live push, recoverable through a history query. The registry lock is
// never held across the store call.
type Relay struct {
	log             *slog.Logger
	registry        contract.IRegistry
	messages        repositories.IMessageRepository
	index           contract.MessageIndex
	moderator       *moderation.Moderator
	deliveryTimeout time.Duration
}

func NewRelay(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, index contract.MessageIndex,
	moderator *moderation.Moderator, deliveryTimeout time.Duration) *Relay {
	return &Relay{
		log:             log,
		registry:        registry,
		messages:        messages,
		index:           index,
		moderator:       moderator,
		deliveryTimeout: deliveryTimeout,
	}
}

// Relay persists the message, then best-effort pushes it to the recipient.
//
// A store failure is surfaced to the caller and nothing is delivered. A
// delivery failure (recipient gone, sink closed or saturated between the
// lookup and the push) is treated exactly like "recipient offline": the
// message is already durable, so no error reaches the sender.
func (r *Relay) Relay(ctx context.Context, senderID, recipientID, content string) (domain.Message, error) {
	if r.moderator != nil {
		content = r.moderator.Censor(content)
	}

	message := domain.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.messages.StoreMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	if r.index != nil {
		if err := r.index.Index(message); err != nil {
			r.log.Warn("message indexing failed", "message_id", message.ID, "error", err)
		}
	}

	sink, ok := r.registry.Lookup(recipientID)
	if !ok {
		r.log.Debug("recipient offline, stored only",
			"sender_id", senderID, "recipient_id", recipientID)
		return message, nil
	}

	pushCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()

	if err := sink.Consume(pushCtx, message); err != nil {
		// The sink closed or filled up between lookup and push. At the
		// protocol level this is indistinguishable from "offline".
		r.log.Debug("live delivery skipped",
			"recipient_id", recipientID, "error", err)
	}

	return message, nil
}
