package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ErrInvalidCredentials hides which part of a login was wrong.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)

// Session is the result of a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *Tokens
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || user.Role == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	token, expires, err := s.tokens.Issue(shared.Principal{
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
		Role:           user.Role,
	})
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: token, TokenType: "bearer", ExpiresAt: expires}, nil
}
