package model

import "errors"

// Sentinel errors shared by the identity providers and the resource client.
var (
	// ErrDuplicateIdentity is returned when a registration's username or
	// email collides, case-insensitively, with an existing account.
	ErrDuplicateIdentity = errors.New("username or email already taken")

	// ErrInvalidCredentials is returned when no account matches a login.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotFound is returned when a requested resource does not exist,
	// e.g. a post deleted by another session.
	ErrNotFound = errors.New("not found")
)
