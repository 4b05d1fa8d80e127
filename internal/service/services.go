package service

import (
	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/neuraforge/collab-gateway/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Services struct {
	Credentials *CredentialStore
	Sessions    *SessionRegistry
	Auth        *AuthService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return NewServicesWithCost(repos, cfg, bcrypt.DefaultCost)
}

// NewServicesWithCost is NewServices with an explicit bcrypt cost.
func NewServicesWithCost(repos *repository.Repositories, cfg *config.Config, hashCost int) *Services {
	credentials := NewCredentialStore(repos.User, hashCost)
	sessions := NewSessionRegistry(
		repos.Session,
		NewTokenGenerator(cfg.TokenSigningSecret),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	return &Services{
		Credentials: credentials,
		Sessions:    sessions,
		Auth:        NewAuthService(credentials, sessions),
	}
}
