package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/store"
)

// DefaultRateLimitWindow is the sliding window for per-user request
// counting.
const DefaultRateLimitWindow = 15 * time.Minute

// LimitRule binds a request ceiling to a role and/or path prefix. Empty
// Role matches every role; empty PathPrefix matches every path. More
// specific rules win.
type LimitRule struct {
	Role        string
	PathPrefix  string
	MaxRequests int
}

func (r LimitRule) matches(role, path string) bool {
	if r.Role != "" && r.Role != role {
		return false
	}
	if r.PathPrefix != "" && !strings.HasPrefix(path, r.PathPrefix) {
		return false
	}
	return true
}

// specificity orders rules: role+path beats role-only beats path-only
// beats the catch-all.
func (r LimitRule) specificity() int {
	n := 0
	if r.Role != "" {
		n += 2
	}
	if r.PathPrefix != "" {
		n++
	}
	return n
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RequestRateLimiter enforces a per-user sliding-window request budget
// on authenticated traffic. Limits resolve per role and path so admins
// and hot paths can carry different ceilings.
type RequestRateLimiter struct {
	Counters store.KeyedCounterStore

	// Rules are consulted most-specific-first. A DefaultLimit applies
	// when no rule matches.
	Rules        []LimitRule
	DefaultLimit int

	// Window defaults to DefaultRateLimitWindow when zero.
	Window time.Duration
}

func (l *RequestRateLimiter) window() time.Duration {
	if l.Window > 0 {
		return l.Window
	}
	return DefaultRateLimitWindow
}

// ResolveLimit returns the request ceiling for a role/path pair.
func (l *RequestRateLimiter) ResolveLimit(role, path string) int {
	best := -1
	limit := l.DefaultLimit
	for _, rule := range l.Rules {
		if !rule.matches(role, path) {
			continue
		}
		if s := rule.specificity(); s > best {
			best = s
			limit = rule.MaxRequests
		}
	}
	return limit
}

// Limits enumerates every configured rule plus the default, so
// operators can inspect the active policy.
func (l *RequestRateLimiter) Limits() []LimitRule {
	out := make([]LimitRule, 0, len(l.Rules)+1)
	out = append(out, l.Rules...)
	out = append(out, LimitRule{MaxRequests: l.DefaultLimit})
	return out
}

// Allow records the request and reports whether the user is inside
// their budget. A zero or negative resolved limit means unlimited.
func (l *RequestRateLimiter) Allow(ctx context.Context, userID, role, path string, now time.Time) (Decision, error) {
	limit := l.ResolveLimit(role, path)
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit}, nil
	}

	key := requestKey(userID)
	count, err := l.Counters.Count(ctx, key, l.window(), now)
	if err != nil {
		return Decision{}, fmt.Errorf("count requests: %w", err)
	}

	if count >= limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: l.window(),
		}, nil
	}

	if err := l.Counters.Record(ctx, key, now); err != nil {
		return Decision{}, fmt.Errorf("record request: %w", err)
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
	}, nil
}

func requestKey(userID string) string { return "rl:" + userID }
