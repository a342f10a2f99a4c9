package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
	"github.com/gatehouselabs/gatehouse/internal/gate/store"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/memory"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/sqlite"
)

func TestHousekeepingService(t *testing.T) {
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "gate.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		ID: "u1", Username: "user-u1", Role: "user", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID: "dead", UserID: "u1", AccessTokenPrefix: "prefix-dead00000000",
		AccessTokenHash: "00", Active: true, CreatedAt: now, ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID: "live", UserID: "u1", AccessTokenPrefix: "prefix-live00000000",
		AccessTokenHash: "00", Active: true, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	hk := NewHousekeepingService(s, memory.NewCounterStore(), slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	// Startup cleanup runs before Stop returns.
	_, err = s.Sessions().GetSessionByID(ctx, "dead")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Sessions().GetSessionByID(ctx, "live")
	require.NoError(t, err)
}

func TestHousekeepingDefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(nil, memory.NewCounterStore(), slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
