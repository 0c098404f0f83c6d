package server

import (
	"chattin/domain"
	"chattin/errors"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBufferedSink_Consume_Then_Drain(t *testing.T) {
	req := require.New(t)
	sink := newBufferedSink(2)

	message := domain.Message{ID: uuid.New(), Content: "hello"}
	req.NoError(sink.Consume(context.Background(), message))

	select {
	case received := <-sink.events:
		req.Equal(message, received)
	default:
		req.Fail("message should be buffered")
	}
}

func TestBufferedSink_Closed_Sink_Refuses_Messages(t *testing.T) {
	req := require.New(t)
	sink := newBufferedSink(2)

	sink.Close()

	err := sink.Consume(context.Background(), domain.Message{ID: uuid.New()})
	req.ErrorIs(err, errors.ErrSinkClosed)
}

func TestBufferedSink_Full_Buffer_Fails_On_Deadline(t *testing.T) {
	req := require.New(t)
	sink := newBufferedSink(1)

	// Given a full buffer and nobody draining it
	req.NoError(sink.Consume(context.Background(), domain.Message{ID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Then the push gives up at the deadline instead of blocking forever
	err := sink.Consume(ctx, domain.Message{ID: uuid.New()})
	req.ErrorIs(err, errors.ErrSinkFull)
}

func TestBufferedSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	sink := newBufferedSink(1)

	sink.Close()
	sink.Close()

	select {
	case <-sink.Done():
	default:
		req.Fail("done channel should be closed")
	}
}

func TestBufferedSink_Close_Unblocks_Pending_Consume(t *testing.T) {
	req := require.New(t)
	sink := newBufferedSink(1)

	req.NoError(sink.Consume(context.Background(), domain.Message{ID: uuid.New()}))

	errs := make(chan error, 1)
	go func() {
		errs <- sink.Consume(context.Background(), domain.Message{ID: uuid.New()})
	}()

	time.Sleep(20 * time.Millisecond)
	sink.Close()

	select {
	case err := <-errs:
		req.ErrorIs(err, errors.ErrSinkClosed)
	case <-time.After(500 * time.Millisecond):
		req.Fail("Consume should have been unblocked by Close")
	}
}
