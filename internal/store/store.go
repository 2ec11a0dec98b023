// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/letsgo-ai/concierge/internal/domain"
)

// ErrNotFound is returned by lookups for missing rows.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for persisting users and sessions.
type Repository interface {
	// GetUser retrieves a user by provider external id. Returns
	// ErrNotFound when absent.
	GetUser(ctx context.Context, externalID string) (*domain.User, error)

	// UpsertUser creates or updates a user from provider identity
	// fields. Repeated calls with the same identity never create
	// duplicates; created_at is preserved on update.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateProfile updates the editable profile fields.
	UpdateProfile(ctx context.Context, externalID, firstName, lastName, avatarURL string) error

	// DeleteUser removes the user and all their sessions.
	DeleteUser(ctx context.Context, externalID string) error

	// CreateSession persists a browser session.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by token. Returns ErrNotFound
	// when absent.
	GetSession(ctx context.Context, token string) (*domain.Session, error)

	// DeleteSession removes a session by token.
	DeleteSession(ctx context.Context, token string) error

	// SetDeleteArmed sets or clears the pending account-deletion mark
	// on a session. A zero time clears it.
	SetDeleteArmed(ctx context.Context, token string, at time.Time) error

	// DeleteExpiredSessions removes sessions past their expiry.
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
