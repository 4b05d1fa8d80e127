package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
	"github.com/neuraforge/collab-gateway/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Demo account created at startup when seeding is enabled.
const (
	DemoUserEmail    = "demo@neuraforge.dev"
	DemoUserPassword = "demo123"
	DemoUserName     = "Demo User"
)

// CredentialStore owns user records and verifies passwords against their
// bcrypt hashes.
type CredentialStore struct {
	users     repository.UserRepository
	hashCost  int
	dummyHash []byte
}

func NewCredentialStore(users repository.UserRepository, hashCost int) *CredentialStore {
	// compared against on unknown emails so both failure paths cost a bcrypt round
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	return &CredentialStore{
		users:     users,
		hashCost:  hashCost,
		dummyHash: dummy,
	}
}

func (s *CredentialStore) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", domain.ErrBadRequest)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred := &domain.Credential{
		UserID:       user.ID,
		PasswordHash: string(hashed),
	}

	if err := s.users.Create(ctx, user, cred); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns domain.ErrInvalidCredentials for both an unknown
// email and a wrong password.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, cred, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *CredentialStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// SeedDemoUser registers the demo account. Calling it twice is harmless.
func (s *CredentialStore) SeedDemoUser(ctx context.Context) (*domain.User, error) {
	user, err := s.Register(ctx, DemoUserEmail, DemoUserPassword, DemoUserName)
	if errors.Is(err, domain.ErrUserExists) {
		existing, _, lookupErr := s.users.GetByEmail(ctx, DemoUserEmail)
		return existing, lookupErr
	}
	return user, err
}
