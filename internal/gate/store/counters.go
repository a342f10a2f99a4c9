package store

import (
	"context"
	"time"
)

// KeyedCounterStore records per-key event timestamps and counts them
// over a sliding window. It backs both the brute-force guard (keyed by
// client IP) and the per-user request limiter (keyed by user id). The
// in-process driver serves single-instance deployments; the redis
// driver shares windows across instances.
type KeyedCounterStore interface {
	// Record appends an event for key at the given time.
	Record(ctx context.Context, key string, at time.Time) error

	// Count returns how many events for key fall inside (now-window, now].
	// Entries older than the window are pruned as a side effect.
	Count(ctx context.Context, key string, window time.Duration, now time.Time) (int, error)

	// Clear drops every event recorded for key.
	Clear(ctx context.Context, key string) error

	// Prune drops keys whose newest event is older than window. Drivers
	// with native expiry may implement this as a no-op.
	Prune(ctx context.Context, window time.Duration, now time.Time) error
}

// BlockStore tracks temporary per-key denials (blocked client IPs).
type BlockStore interface {
	// SetBlock marks key blocked as of the given time. The ttl bounds
	// how long the record may linger for drivers with native expiry.
	SetBlock(ctx context.Context, key string, at time.Time, ttl time.Duration) error

	// GetBlock returns the block start for key, reporting whether a
	// block record exists at all. Expiry policy belongs to the caller.
	GetBlock(ctx context.Context, key string) (time.Time, bool, error)

	// ClearBlock removes any block record for key.
	ClearBlock(ctx context.Context, key string) error
}
