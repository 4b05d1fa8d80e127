package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/neuraforge/collab-gateway/internal/api/respond"
	"github.com/neuraforge/collab-gateway/internal/service"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				log.Printf("ERROR [middleware.Auth] missing authorization header")
				respond.Error(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				log.Printf("ERROR [middleware.Auth] invalid authorization header format")
				respond.Error(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			userID, err := authService.ValidateToken(r.Context(), token)
			if err != nil {
				log.Printf("ERROR [middleware.Auth] token validation failed: %v", err)
				respond.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
