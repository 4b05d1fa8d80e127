package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
)

type userRecord struct {
	user domain.User
	cred domain.Credential
}

type userRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*userRecord
	byID    map[uuid.UUID]*userRecord
}

func NewUserRepository() *userRepository {
	return &userRepository{
		byEmail: make(map[string]*userRecord),
		byID:    make(map[uuid.UUID]*userRecord),
	}
}

// Create keys the user by email exactly as given; emails differing only in
// case are distinct users.
func (r *userRepository) Create(ctx context.Context, user *domain.User, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return domain.ErrUserExists
	}

	rec := &userRecord{user: *user, cred: *cred}
	r.byEmail[user.Email] = rec
	r.byID[user.ID] = rec
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := rec.user
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, *domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byEmail[email]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	user, cred := rec.user, rec.cred
	return &user, &cred, nil
}
