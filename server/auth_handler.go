package server

import (
	"encoding/json"
	"net/http"
)

// handleRegister creates a new account and issues the initial token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorEvent{Error: "invalid request body"})
		return
	}

	user, token, err := s.authService.Register(req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, TokenResponse{
		AccessToken: string(token),
		TokenType:   "bearer",
		UserID:      user.ID,
		Username:    user.Username,
	})
}

// handleLogin verifies credentials and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorEvent{Error: "invalid request body"})
		return
	}

	user, token, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: string(token),
		TokenType:   "bearer",
		UserID:      user.ID,
		Username:    user.Username,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
