package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Credential pairs a user with the bcrypt hash of their password.
// It is never serialized.
type Credential struct {
	UserID       uuid.UUID
	PasswordHash string
}
