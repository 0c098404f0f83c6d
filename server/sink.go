package server

import (
	"context"
	"sync"

	"chattin/domain"
	"chattin/errors"
)

// bufferedSink is the delivery handle handed to the presence registry for
// one session. Consume hands the message to the session's write loop
// through a bounded channel, decoupled from the session's read loop. It
// waits at most for the caller's deadline and fails fast once the session
// is closing; the relay degrades either failure to "recipient offline".
type bufferedSink struct {
	events    chan domain.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newBufferedSink(bufferSize int) *bufferedSink {
	return &bufferedSink{
		events: make(chan domain.Message, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *bufferedSink) Consume(ctx context.Context, message domain.Message) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}

	select {
	case s.events <- message:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return errors.ErrSinkFull
	}
}

// Close signals the owning session to tear down. Called either by the
// session itself on any exit path, or by a newer connection for the same
// identity that supersedes this one.
func (s *bufferedSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done exposes the closing signal to the session's write loop.
func (s *bufferedSink) Done() <-chan struct{} {
	return s.done
}
