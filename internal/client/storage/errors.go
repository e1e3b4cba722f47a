package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that the operator never logged in
	ErrSessionNotFound = errors.New("session not found")
)
