package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/store"
)

const (
	// DefaultMaxFailedAttempts is how many validation failures an IP may
	// accumulate inside the window before it gets blocked.
	DefaultMaxFailedAttempts = 5

	// DefaultBlockDuration is both the sliding window for counting
	// failures and how long a triggered block lasts.
	DefaultBlockDuration = 15 * time.Minute
)

// BruteForceGuard tracks failed validation attempts per client IP and
// blocks an IP once it crosses the threshold. A successful validation
// wipes the IP's slate entirely.
type BruteForceGuard struct {
	Counters store.KeyedCounterStore
	Blocks   store.BlockStore
	Logger   *slog.Logger

	// MaxAttempts and BlockDuration default to the package constants
	// when zero.
	MaxAttempts   int
	BlockDuration time.Duration
}

func (g *BruteForceGuard) maxAttempts() int {
	if g.MaxAttempts > 0 {
		return g.MaxAttempts
	}
	return DefaultMaxFailedAttempts
}

func (g *BruteForceGuard) blockDuration() time.Duration {
	if g.BlockDuration > 0 {
		return g.BlockDuration
	}
	return DefaultBlockDuration
}

// RecordFailure registers one failed attempt for ip. Crossing the
// threshold sets a block starting now.
func (g *BruteForceGuard) RecordFailure(ctx context.Context, ip string, now time.Time) error {
	if err := g.Counters.Record(ctx, failureKey(ip), now); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	count, err := g.Counters.Count(ctx, failureKey(ip), g.blockDuration(), now)
	if err != nil {
		return fmt.Errorf("count failures: %w", err)
	}

	if count >= g.maxAttempts() {
		if err := g.Blocks.SetBlock(ctx, ip, now, g.blockDuration()); err != nil {
			return fmt.Errorf("set block: %w", err)
		}
		if g.Logger != nil {
			g.Logger.Warn("client blocked after repeated failures",
				"ip", ip,
				"failures", count,
				"block_duration", g.blockDuration(),
			)
		}
	}
	return nil
}

// RecordSuccess clears all failure state for ip. One good credential
// proves the client is not guessing.
func (g *BruteForceGuard) RecordSuccess(ctx context.Context, ip string) error {
	if err := g.Counters.Clear(ctx, failureKey(ip)); err != nil {
		return fmt.Errorf("clear failures: %w", err)
	}
	if err := g.Blocks.ClearBlock(ctx, ip); err != nil {
		return fmt.Errorf("clear block: %w", err)
	}
	return nil
}

// IsBlocked reports whether ip is currently blocked. Lapsed blocks are
// cleaned up on the way through.
func (g *BruteForceGuard) IsBlocked(ctx context.Context, ip string, now time.Time) (bool, error) {
	start, ok, err := g.Blocks.GetBlock(ctx, ip)
	if err != nil {
		return false, fmt.Errorf("get block: %w", err)
	}
	if !ok {
		return false, nil
	}

	if now.Sub(start) >= g.blockDuration() {
		_ = g.Blocks.ClearBlock(ctx, ip)
		return false, nil
	}
	return true, nil
}

// RetryAfter returns how long ip must wait before its block lapses.
// Zero when the ip is not blocked.
func (g *BruteForceGuard) RetryAfter(ctx context.Context, ip string, now time.Time) (time.Duration, error) {
	start, ok, err := g.Blocks.GetBlock(ctx, ip)
	if err != nil {
		return 0, fmt.Errorf("get block: %w", err)
	}
	if !ok {
		return 0, nil
	}

	remaining := g.blockDuration() - now.Sub(start)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func failureKey(ip string) string { return "bf:" + ip }
