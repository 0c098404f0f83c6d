package services

import (
	"fmt"
	"time"

	"chattin/auth"
	"chattin/domain"
	"chattin/errors"
	"chattin/repositories"
)

type IAuthService interface {
	Register(username, password string) (domain.User, Token, error)
	Login(username, password string) (domain.User, Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	signingKey     []byte
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, signingKey []byte,
	tokenDuration time.Duration) IAuthService {
	return &AuthService{
		userRepository: repo,
		signingKey:     signingKey,
		tokenDuration:  tokenDuration,
	}
}

func (s *AuthService) Register(username, password string) (domain.User, Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer so the repository never sees a plain
	// password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(username, hashedPassword)
	if err != nil {
		return domain.User{}, "", err // propagates ErrUserAlreadyExists
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.signingKey, s.tokenDuration)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}

func (s *AuthService) Login(username, password string) (domain.User, Token, error) {
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.signingKey, s.tokenDuration)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}
