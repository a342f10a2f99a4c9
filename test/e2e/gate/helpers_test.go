package gate_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
	gatehttp "github.com/gatehouselabs/gatehouse/internal/gate/http"
	"github.com/gatehouselabs/gatehouse/internal/gate/service"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/memory"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/sqlite"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
)

/*
 * Common helpers for gate service end-to-end tests: an in-process
 * server with a real SQLite store, plus seeding utilities.
 */

const testSalt = "e2e-test-salt"

// setupGateServer stands up the full router (auth gateway, guard,
// limiter, store) on an httptest server and returns its base URL plus
// the backing store for seeding.
func setupGateServer(t *testing.T) (string, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "gate.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { st.Close() })

	router := gatehttp.NewRouter("e2e-test", st, slog.Default())
	router.Resolver = &service.SessionResolver{
		Store:     st,
		Validator: &service.TokenValidator{Salt: testSalt},
	}
	router.Guard = &service.BruteForceGuard{
		Counters: memory.NewCounterStore(),
		Blocks:   memory.NewBlockStore(),
		Logger:   slog.Default(),
	}
	router.Limiter = &service.RequestRateLimiter{
		Counters:     memory.NewCounterStore(),
		DefaultLimit: 1000,
	}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server.URL, st
}

// mintToken builds a structurally valid credential carrying the given
// claims.
func mintToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + ".c2lnbmF0dXJl"
}

// seedSession stores a user and an active session matching raw.
func seedSession(t *testing.T, st *sqlite.Store, raw, userID, role string) {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		ID:        userID,
		Username:  "user-" + userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	digest, err := cryptox.HashToken(raw, testSalt)
	require.NoError(t, err)

	require.NoError(t, st.Sessions().CreateSession(ctx, domain.Session{
		ID:                "sess-" + userID,
		UserID:            userID,
		AccessTokenPrefix: raw[:20],
		AccessTokenHash:   digest,
		RefreshSecret:     "refresh-secret-0123456789abcdef-0123456789",
		Active:            true,
		CreatedAt:         now,
		ExpiresAt:         now.Add(24 * time.Hour),
	}))
}
