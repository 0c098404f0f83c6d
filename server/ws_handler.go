package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chattin/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The session is authenticated by JWT before the upgrade; origin
		// checks are left to the deployment's reverse proxy.
		return true
	},
}

// handleWebSocket upgrades the connection and runs the session until the
// client is gone. Identity was resolved by the auth middleware, so by the
// time the transport exists the handshake is already settled.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	session := NewSession(s.log, conn, userID, s.relay, s.registry, s.bufferSize)
	session.Run(r.Context())
}
