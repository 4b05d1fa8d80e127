// Package memory holds the process-local repositories. Nothing is written
// to disk: users and sessions are lost when the process exits.
package memory

import "github.com/neuraforge/collab-gateway/internal/repository"

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(),
		Session: NewSessionRepository(),
	}
}
