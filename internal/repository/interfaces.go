package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
)

type UserRepository interface {
	// Create stores the user together with its credential. It fails with
	// domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, user *domain.User, cred *domain.Credential) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, *domain.Credential, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
}
