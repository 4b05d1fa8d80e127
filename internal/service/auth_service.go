package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
)

type AuthService struct {
	credentials *CredentialStore
	sessions    *SessionRegistry
}

func NewAuthService(credentials *CredentialStore, sessions *SessionRegistry) *AuthService {
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", domain.ErrBadRequest)
	}

	user, err := s.credentials.Register(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrBadRequest)
	}

	user, err := s.credentials.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	pair, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// ValidateToken resolves an access token to its user id.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	return s.sessions.Resolve(ctx, token)
}

// Authenticate resolves an access token all the way to the user record.
// A token whose user no longer exists is reported as invalid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.credentials.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.credentials.GetByID(ctx, id)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("%w: refresh token is required", domain.ErrBadRequest)
	}
	return s.sessions.Refresh(ctx, refreshToken)
}

// Logout revokes the token if there is one. It never fails.
func (s *AuthService) Logout(ctx context.Context, token string) {
	_ = s.sessions.Revoke(ctx, token)
}
