package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/memory"
)

func newLimiter(rules []LimitRule, def int) *RequestRateLimiter {
	return &RequestRateLimiter{
		Counters:     memory.NewCounterStore(),
		Rules:        rules,
		DefaultLimit: def,
	}
}

func TestResolveLimit(t *testing.T) {
	l := newLimiter([]LimitRule{
		{Role: "admin", MaxRequests: 1000},
		{PathPrefix: "/v1/stream", MaxRequests: 20},
		{Role: "admin", PathPrefix: "/v1/stream", MaxRequests: 100},
	}, 300)

	t.Run("catch-all default", func(t *testing.T) {
		require.Equal(t, 300, l.ResolveLimit("user", "/v1/whoami"))
	})

	t.Run("role rule beats default", func(t *testing.T) {
		require.Equal(t, 1000, l.ResolveLimit("admin", "/v1/whoami"))
	})

	t.Run("path rule beats default", func(t *testing.T) {
		require.Equal(t, 20, l.ResolveLimit("user", "/v1/stream"))
	})

	t.Run("role+path rule beats both", func(t *testing.T) {
		require.Equal(t, 100, l.ResolveLimit("admin", "/v1/stream"))
	})
}

func TestLimitsEnumeration(t *testing.T) {
	rules := []LimitRule{
		{Role: "admin", MaxRequests: 1000},
		{PathPrefix: "/v1/stream", MaxRequests: 20},
	}
	l := newLimiter(rules, 300)

	limits := l.Limits()
	require.Len(t, limits, 3)
	require.Equal(t, rules[0], limits[0])
	require.Equal(t, rules[1], limits[1])
	require.Equal(t, LimitRule{MaxRequests: 300}, limits[2])
}

func TestAllow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("requests under the limit pass with remaining counts", func(t *testing.T) {
		l := newLimiter(nil, 3)

		for i := range 3 {
			d, err := l.Allow(ctx, "u1", "user", "/v1/whoami", base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.True(t, d.Allowed)
			require.Equal(t, 3, d.Limit)
			require.Equal(t, 2-i, d.Remaining)
		}
	})

	t.Run("request over the limit is denied with retry-after", func(t *testing.T) {
		l := newLimiter(nil, 2)

		for i := range 2 {
			_, err := l.Allow(ctx, "u1", "user", "/", base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
		}

		d, err := l.Allow(ctx, "u1", "user", "/", base.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.Zero(t, d.Remaining)
		require.Equal(t, DefaultRateLimitWindow, d.RetryAfter)
	})

	t.Run("denied requests do not consume budget", func(t *testing.T) {
		l := newLimiter(nil, 1)

		_, err := l.Allow(ctx, "u1", "user", "/", base)
		require.NoError(t, err)

		// Hammering while denied must not extend the window.
		for i := range 5 {
			d, err := l.Allow(ctx, "u1", "user", "/", base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.False(t, d.Allowed)
		}

		// Past the window the single recorded request has lapsed.
		d, err := l.Allow(ctx, "u1", "user", "/", base.Add(16*time.Minute))
		require.NoError(t, err)
		require.True(t, d.Allowed)
	})

	t.Run("users have independent budgets", func(t *testing.T) {
		l := newLimiter(nil, 1)

		d, err := l.Allow(ctx, "u1", "user", "/", base)
		require.NoError(t, err)
		require.True(t, d.Allowed)

		d, err = l.Allow(ctx, "u2", "user", "/", base)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	})

	t.Run("non-positive limit means unlimited", func(t *testing.T) {
		l := newLimiter(nil, 0)

		for i := range 50 {
			d, err := l.Allow(ctx, "u1", "user", "/", base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.True(t, d.Allowed)
		}
	})

	t.Run("window slides rather than resets", func(t *testing.T) {
		l := newLimiter(nil, 2)
		l.Window = 10 * time.Minute

		_, err := l.Allow(ctx, "u1", "user", "/", base)
		require.NoError(t, err)
		_, err = l.Allow(ctx, "u1", "user", "/", base.Add(9*time.Minute))
		require.NoError(t, err)

		// First request has lapsed at +11m; second has not.
		d, err := l.Allow(ctx, "u1", "user", "/", base.Add(11*time.Minute))
		require.NoError(t, err)
		require.True(t, d.Allowed)

		d, err = l.Allow(ctx, "u1", "user", "/", base.Add(12*time.Minute))
		require.NoError(t, err)
		require.False(t, d.Allowed)
	})
}
