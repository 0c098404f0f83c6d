package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func identityEcho() (http.Handler, *string) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := UserIDFromContext(r.Context()); ok {
			seen = id
		}
		w.WriteHeader(http.StatusOK)
	})
	return handler, &seen
}

func TestRequireAuth_Bearer_Header(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken("uuid-123", "alice42", testKey, 1*time.Hour)
	req.NoError(err)

	handler, seen := identityEcho()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/users", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	RequireAuth(testKey, handler).ServeHTTP(recorder, request)

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("uuid-123", *seen)
}

func TestRequireAuth_Query_Parameter(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken("uuid-456", "bob", testKey, 1*time.Hour)
	req.NoError(err)

	// WebSocket clients pass the token as a query parameter
	handler, seen := identityEcho()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)

	RequireAuth(testKey, handler).ServeHTTP(recorder, request)

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("uuid-456", *seen)
}

func TestRequireAuth_Rejections(t *testing.T) {
	req := require.New(t)

	t.Run("missing token", func(t *testing.T) {
		handler, _ := identityEcho()
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/users", nil)

		RequireAuth(testKey, handler).ServeHTTP(recorder, request)

		req.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken("uuid-123", "alice42", testKey, -1*time.Minute)
		req.NoError(err)

		handler, _ := identityEcho()
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/users", nil)
		request.Header.Set("Authorization", "Bearer "+token)

		RequireAuth(testKey, handler).ServeHTTP(recorder, request)

		req.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		token, err := GenerateToken("uuid-123", "alice42", []byte("rogue-key"), 1*time.Hour)
		req.NoError(err)

		handler, _ := identityEcho()
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/users", nil)
		request.Header.Set("Authorization", "Bearer "+token)

		RequireAuth(testKey, handler).ServeHTTP(recorder, request)

		req.Equal(http.StatusUnauthorized, recorder.Code)
	})
}
