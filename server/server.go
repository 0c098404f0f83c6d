package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chattin/auth"
	"chattin/contract"
	"chattin/errors"
	"chattin/observability"
	"chattin/services"
)

// Server wires the HTTP surface: the public auth endpoints, the
// authenticated REST queries, and the WebSocket upgrade.
type Server struct {
	log         *slog.Logger
	authService services.IAuthService
	chatService services.IChatService
	relay       contract.IRelay
	registry    contract.IRegistry
	monitor     *observability.Monitor
	signingKey  []byte
	bufferSize  int
	mux         *http.ServeMux
}

func New(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, relay contract.IRelay,
	registry contract.IRegistry, monitor *observability.Monitor,
	signingKey []byte, bufferSize int) *Server {
	s := &Server{
		log:         log,
		authService: authService,
		chatService: chatService,
		relay:       relay,
		registry:    registry,
		monitor:     monitor,
		signingKey:  signingKey,
		bufferSize:  bufferSize,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux = http.NewServeMux()

	// Public endpoints.
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /users", s.handleRegister)
	s.mux.HandleFunc("POST /token", s.handleLogin)

	// Everything else requires a valid session token.
	protected := map[string]http.HandlerFunc{
		"GET /ws":               s.handleWebSocket,
		"POST /messages":        s.handleSendMessage,
		"GET /messages":         s.handleHistory,
		"GET /messages/search":  s.handleSearch,
		"GET /users":            s.handleListUsers,
		"GET /users/chat":       s.handlePartners,
		"GET /users/{username}": s.handleFindUser,
		"GET /online-users":     s.handleOnlineUsers,
		"GET /stats":            s.handleStats,
	}
	for pattern, handler := range protected {
		s.mux.Handle(pattern, auth.RequireAuth(s.signingKey, handler))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		s.writeJSON(w, status, ErrorEvent{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, ErrorEvent{Error: err.Error()})
}
