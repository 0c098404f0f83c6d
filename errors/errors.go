package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidUsername    = fmt.Errorf("invalid username")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrStoreUnavailable   = fmt.Errorf("message store unavailable")
	ErrSinkClosed         = fmt.Errorf("delivery channel closed")
	ErrSinkFull           = fmt.Errorf("delivery channel full")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates domain sentinels into transport status codes.
// Anything unknown is a plain internal error so internals never leak.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPassword), errors.Is(err, ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
