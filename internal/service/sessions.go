package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
	"github.com/neuraforge/collab-gateway/internal/repository"
)

// SessionRegistry maps bearer tokens to the users they were issued to.
// With zero TTLs tokens live until revoked or until the process exits.
type SessionRegistry struct {
	sessions   repository.SessionRepository
	tokens     TokenGenerator
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionRegistry(sessions repository.SessionRepository, tokens TokenGenerator, accessTTL, refreshTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions:   sessions,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue records a fresh access/refresh pair for the user.
func (r *SessionRegistry) Issue(ctx context.Context, userID uuid.UUID) (*domain.TokenPair, error) {
	access, err := r.create(ctx, userID, domain.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := r.create(ctx, userID, domain.TokenKindRefresh)
	if err != nil {
		_ = r.sessions.Delete(ctx, access)
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (r *SessionRegistry) create(ctx context.Context, userID uuid.UUID, kind domain.TokenKind) (string, error) {
	now := time.Now()
	session := &domain.Session{
		UserID:   userID,
		Kind:     kind,
		IssuedAt: now,
	}
	if ttl := r.ttl(kind); ttl > 0 {
		session.ExpiresAt = now.Add(ttl)
	}

	token, err := r.tokens.Generate(session)
	if err != nil {
		return "", fmt.Errorf("generate %s token: %w", kind, err)
	}
	session.Token = token

	if err := r.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("store %s token: %w", kind, err)
	}
	return token, nil
}

func (r *SessionRegistry) ttl(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return r.refreshTTL
	}
	return r.accessTTL
}

func (r *SessionRegistry) lookup(ctx context.Context, token string, kind domain.TokenKind) (*domain.Session, error) {
	if err := r.tokens.Verify(token); err != nil {
		return nil, domain.ErrInvalidToken
	}

	session, err := r.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if session.Kind != kind || session.Expired(time.Now()) {
		return nil, domain.ErrInvalidToken
	}
	return session, nil
}

// Resolve returns the user behind an access token. Refresh tokens are not
// accepted as bearer credentials.
func (r *SessionRegistry) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	session, err := r.lookup(ctx, token, domain.TokenKindAccess)
	if err != nil {
		return uuid.Nil, err
	}
	return session.UserID, nil
}

// Refresh issues a new access token for the refresh token's user. The
// refresh token itself stays valid and can be used again.
func (r *SessionRegistry) Refresh(ctx context.Context, refreshToken string) (string, error) {
	session, err := r.lookup(ctx, refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return "", err
	}
	return r.create(ctx, session.UserID, domain.TokenKindAccess)
}

// Revoke forgets a token. Unknown tokens are ignored.
func (r *SessionRegistry) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return r.sessions.Delete(ctx, token)
}

func (r *SessionRegistry) Sweep(ctx context.Context) (int, error) {
	return r.sessions.DeleteExpired(ctx, time.Now())
}

// RunSweeper removes expired sessions every interval until ctx is done.
// It returns immediately when no TTL is configured.
func (r *SessionRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || (r.accessTTL <= 0 && r.refreshTTL <= 0) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil {
				log.Printf("ERROR [SessionRegistry.RunSweeper] sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[SessionRegistry] swept %d expired sessions", removed)
			}
		}
	}
}
