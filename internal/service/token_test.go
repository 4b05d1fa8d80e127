package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenGenerator(t *testing.T) {
	gen := service.RandomTokenGenerator{}
	userID := uuid.New()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := gen.Generate(&domain.Session{UserID: userID, Kind: domain.TokenKindAccess})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token, "access_"))
		assert.NotContains(t, token, userID.String(), "tokens must not embed the user id")
		assert.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}

	refresh, err := gen.Generate(&domain.Session{UserID: userID, Kind: domain.TokenKindRefresh})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(refresh, "refresh_"))

	assert.NoError(t, gen.Verify(refresh))
	assert.ErrorIs(t, gen.Verify(""), domain.ErrInvalidToken)
}

func TestJWTTokenGenerator_Verify(t *testing.T) {
	gen := service.NewJWTTokenGenerator("secret-a")
	session := &domain.Session{
		UserID:   uuid.New(),
		Kind:     domain.TokenKindAccess,
		IssuedAt: time.Now(),
	}

	token, err := gen.Generate(session)
	require.NoError(t, err)

	tests := []struct {
		name    string
		gen     *service.JWTTokenGenerator
		token   string
		wantErr bool
	}{
		{name: "valid", gen: gen, token: token},
		{name: "other secret", gen: service.NewJWTTokenGenerator("secret-b"), token: token, wantErr: true},
		{name: "tampered", gen: gen, token: token + "x", wantErr: true},
		{name: "malformed", gen: gen, token: "notavalidjwt", wantErr: true},
		{name: "empty", gen: gen, token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gen.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJWTTokenGenerator_Expired(t *testing.T) {
	gen := service.NewJWTTokenGenerator("secret")
	token, err := gen.Generate(&domain.Session{
		UserID:    uuid.New(),
		Kind:      domain.TokenKindAccess,
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, gen.Verify(token), domain.ErrInvalidToken)
}

func TestNewTokenGenerator(t *testing.T) {
	assert.IsType(t, service.RandomTokenGenerator{}, service.NewTokenGenerator(""))
	assert.IsType(t, &service.JWTTokenGenerator{}, service.NewTokenGenerator("secret"))
}
