package domain

import "errors"

// Request errors
var (
	ErrBadRequest = errors.New("bad request")
)

// Credential errors
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrAuthentication = errors.New("authentication error")
)
