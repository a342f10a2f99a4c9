package store

import (
	"context"
	"errors"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the minimal session/user
// lookups the validation core needs. Concrete drivers (sqlite) implement
// this. Login, logout, and issuance are owned by external collaborators
// and deliberately absent here.
type Store interface {
	Sessions() Sessions
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Sessions interface {
	// GetSessionByAccessPrefix returns the session whose stored access
	// token prefix matches. A prefix maps to exactly one session.
	GetSessionByAccessPrefix(ctx context.Context, prefix string) (domain.Session, error)

	// GetSessionByID returns a session by its identifier.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// CreateSession inserts a new session record (id is ULID).
	CreateSession(ctx context.Context, s domain.Session) error

	// DeactivateSession flips active=0; tokens bound to the session stop
	// validating immediately.
	DeactivateSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping for records lapsed before
	// the cutoff.
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller).
	CreateUser(ctx context.Context, u domain.User) error

	// SetUserLocked flips the account lock flag and bumps updated_at.
	SetUserLocked(ctx context.Context, userID string, locked bool) error
}
