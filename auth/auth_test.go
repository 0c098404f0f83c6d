package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key-not-for-production")

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice42", "ComplexPassword123!"}, false},
		{"Username too short", RegisterRequest{"al", "ComplexPassword123!"}, true},
		{"Username not alphanumeric", RegisterRequest{"alice 42", "ComplexPassword123!"}, true},
		{"Password too short", RegisterRequest{"alice42", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"alice42", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"alice42", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"alice42", "nouppercase12345!"}, true},
		{"Password too long (edge case)", RegisterRequest{"alice42", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("uuid-123", "alice42", testKey, 1*time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(token, testKey)
	req.NoError(err)
	req.Equal("uuid-123", claims.UserID)
	req.Equal("alice42", claims.Username)
	req.Equal("chattin", claims.Issuer)
}

func TestTokenRejection(t *testing.T) {
	req := require.New(t)

	t.Run("wrong signing key", func(t *testing.T) {
		token, err := GenerateToken("uuid-123", "alice42", testKey, 1*time.Hour)
		req.NoError(err)

		_, err = ValidateToken(token, []byte("a-different-key"))
		req.Error(err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken("uuid-123", "alice42", testKey, -1*time.Minute)
		req.NoError(err)

		_, err = ValidateToken(token, testKey)
		req.Error(err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", testKey)
		req.Error(err)
	})
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
