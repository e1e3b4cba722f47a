// Package storage declares the local state of the operator CLI.
package storage

import (
	"context"
	"time"
)

// SessionStorage stores the operator session between CLI invocations.
type SessionStorage interface {
	// SaveSession replaces the stored session
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns the stored session
	// Returns ErrSessionNotFound if none exists
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the stored session (logout)
	// Returns ErrSessionNotFound if none exists
	DeleteSession(ctx context.Context) error
}

// Session is an issued operator token and the server it belongs to.
type Session struct {
	Operator    string `json:"operator"`
	Server      string `json:"server"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && !now.Before(time.Unix(s.ExpiresAt, 0))
}
