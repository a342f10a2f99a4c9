package domain

import "time"

// Session models the server-side record binding a user to an issued
// access/refresh credential pair. The access token itself is never
// stored; only its lookup prefix and salted digest are.
type Session struct {
	ID     string
	UserID string

	// AccessTokenPrefix is the first N characters of the access token.
	// It is a fast lookup key only, never an authenticity check.
	AccessTokenPrefix string

	// AccessTokenHash is the salted SHA-256 digest of the full access
	// token (64 hex chars).
	AccessTokenHash string

	// RefreshSecret is the opaque refresh credential bound to this
	// session. Validation double-hashes both sides before comparing.
	RefreshSecret string

	Active    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the session can still authenticate tokens.
// An inactive session invalidates every token bound to it regardless of
// hash correctness.
func (s Session) IsActive() bool { return s.Active }

// ExpiredAt reports whether the session record itself has lapsed.
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}
