package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chattin/auth"
	"chattin/search"
)

// handleSendMessage is the REST send path. It goes through the same relay
// as the WebSocket, so persistence-before-delivery holds here too. The
// sender is the authenticated caller; any sender field in the payload is
// ignored by construction.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var intent MessageIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil || intent.RecipientID == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorEvent{Error: "invalid message payload"})
		return
	}

	message, err := s.chatService.Send(r.Context(), userID, intent.RecipientID, intent.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toMessageEvent(message))
}

// handleHistory returns the ordered conversation between the caller and
// the user given by ?with=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	withID := r.URL.Query().Get("with")
	if withID == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorEvent{Error: "missing 'with' parameter"})
		return
	}

	messages, err := s.chatService.History(userID, withID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Messages: toMessageEvents(messages)})
}

// handleSearch runs a full-text query over the caller's conversations.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	terms := r.URL.Query().Get("q")
	if terms == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorEvent{Error: "missing 'q' parameter"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := s.chatService.SearchMessages(r.Context(), search.Query{
		Requester: userID,
		With:      r.URL.Query().Get("with"),
		Terms:     terms,
		Limit:     limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Messages: toMessageEvents(messages)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.chatService.Users()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponses(users))
}

func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.chatService.FindUser(r.PathValue("username"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handlePartners lists the users the caller has exchanged messages with,
// most recent dialog first.
func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	partners, err := s.chatService.Partners(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponses(partners))
}

// handleOnlineUsers returns a snapshot of currently connected users. It
// may be stale by the time the client renders it.
func (s *Server) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.chatService.OnlineUsers()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponses(users))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.Latest())
}
