package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chattin/contract"
)

const (
	maxFrameBytes = 64 * 1024
	writeWait     = 10 * time.Second
)

// Session owns exactly one WebSocket connection from handshake to
// teardown. The read loop decodes intents and hands them to the relay;
// the write loop drains the sink so inbound and outbound traffic never
// block each other. Whatever path ends the session, the deferred cleanup
// in Run unregisters it so the presence registry never leaks an entry.
type Session struct {
	log      *slog.Logger
	conn     *websocket.Conn
	userID   string
	relay    contract.IRelay
	registry contract.IRegistry
	sink     *bufferedSink
	// errs carries per-frame failures back to this client only.
	errs chan ErrorEvent
}

func NewSession(log *slog.Logger, conn *websocket.Conn, userID string,
	relay contract.IRelay, registry contract.IRegistry, bufferSize int) *Session {
	return &Session{
		log:      log,
		conn:     conn,
		userID:   userID,
		relay:    relay,
		registry: registry,
		sink:     newBufferedSink(bufferSize),
		errs:     make(chan ErrorEvent, 4),
	}
}

// Run blocks until the connection is gone. It registers the session,
// closing any superseded connection for the same identity, then runs the
// read loop with the write loop alongside.
func (s *Session) Run(ctx context.Context) {
	if previous := s.registry.Register(s.userID, s.sink); previous != nil {
		// One active connection per identity: the old one is told to
		// shut down rather than silently overwritten.
		s.log.Info("superseding previous connection", "user_id", s.userID)
		previous.Close()
	}

	defer func() {
		s.registry.Unregister(s.userID, s.sink)
		s.sink.Close()
		_ = s.conn.Close()
		s.log.Info("session closed", "user_id", s.userID)
	}()

	s.log.Info("session established", "user_id", s.userID)

	go s.writeLoop(ctx)
	s.readLoop(ctx)
}

// readLoop receives frames until the transport fails or the session is
// told to stop. A malformed frame is reported and dropped, it never tears
// the connection down.
func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameBytes)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// Graceful close, peer reset and supersedure all land here.
			return
		}

		var intent MessageIntent
		if err := json.Unmarshal(data, &intent); err != nil || intent.RecipientID == "" {
			s.log.Warn("malformed frame dropped", "user_id", s.userID, "error", err)
			s.notifyError("malformed frame")
			continue
		}

		if _, err := s.relay.Relay(ctx, s.userID, intent.RecipientID, intent.Content); err != nil {
			s.log.Error("relay failed",
				"sender_id", s.userID, "recipient_id", intent.RecipientID, "error", err)
			s.notifyError("message could not be stored")
		}
	}
}

// writeLoop is the only writer on the connection. It drains pushed
// messages and error reports, and closes the transport when the session
// winds down, which also unblocks the pending read.
func (s *Session) writeLoop(ctx context.Context) {
	defer func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = s.conn.Close()
	}()

	for {
		select {
		case message := <-s.sink.events:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(toMessageEvent(message)); err != nil {
				s.sink.Close()
				return
			}
		case evt := <-s.errs:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(evt); err != nil {
				s.sink.Close()
				return
			}
		case <-s.sink.Done():
			return
		case <-ctx.Done():
			s.sink.Close()
			return
		}
	}
}

func (s *Session) notifyError(reason string) {
	select {
	case s.errs <- ErrorEvent{Error: reason}:
	default:
		// Error reporting is best-effort; never block the read loop.
	}
}
