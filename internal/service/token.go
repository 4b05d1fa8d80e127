package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/domain"
)

const randomTokenBytes = 32

// TokenGenerator mints the opaque strings handed to clients. A token is only
// valid while the SessionRegistry holds it; Verify is a cheap pre-check that
// runs before the lookup.
type TokenGenerator interface {
	Generate(session *domain.Session) (string, error)
	Verify(token string) error
}

// NewTokenGenerator returns a JWT generator when a signing secret is
// configured, and a random one otherwise.
func NewTokenGenerator(signingSecret string) TokenGenerator {
	if signingSecret != "" {
		return NewJWTTokenGenerator(signingSecret)
	}
	return RandomTokenGenerator{}
}

// RandomTokenGenerator produces "<kind>_<base64url 256-bit random>" tokens.
type RandomTokenGenerator struct{}

func (RandomTokenGenerator) Generate(session *domain.Session) (string, error) {
	buf := make([]byte, randomTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return string(session.Kind) + "_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

func (RandomTokenGenerator) Verify(token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrInvalidToken
	}
	return nil
}

// JWTTokenGenerator signs tokens with HS256 so forged strings are rejected
// before they reach the registry.
type JWTTokenGenerator struct {
	secret []byte
}

func NewJWTTokenGenerator(secret string) *JWTTokenGenerator {
	return &JWTTokenGenerator{secret: []byte(secret)}
}

func (g *JWTTokenGenerator) Generate(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":  session.UserID.String(),
		"kind": string(session.Kind),
		"jti":  uuid.NewString(),
		"iat":  session.IssuedAt.Unix(),
	}
	if !session.ExpiresAt.IsZero() {
		claims["exp"] = session.ExpiresAt.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

func (g *JWTTokenGenerator) Verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.ErrInvalidToken
	}
	return nil
}
