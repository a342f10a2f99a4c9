package gate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouselabs/gatehouse/pkg/gatesdk"
)

// TestWhoamiWithValidToken walks the happy path: seeded session, bearer
// credential, resolved identity.
func TestWhoamiWithValidToken(t *testing.T) {
	baseURL, st := setupGateServer(t)
	client := gatesdk.NewClient(baseURL)

	raw := mintToken(t, map[string]any{
		"userId": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	seedSession(t, st, raw, "u1", "admin")

	who, err := client.Whoami(t.Context(), raw)
	require.NoError(t, err)
	require.Equal(t, "u1", who.UserID)
	require.Equal(t, "sess-u1", who.SessionID)
	require.Equal(t, "user-u1", who.Username)
	require.Equal(t, "admin", who.Role)
}

// TestWhoamiRejections verifies the client-visible rejection contract.
func TestWhoamiRejections(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		baseURL, _ := setupGateServer(t)
		client := gatesdk.NewClient(baseURL)

		_, err := client.Whoami(t.Context(), "")

		var apiErr *gatesdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 401, apiErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeTokenMissing, apiErr.Code)
		require.False(t, apiErr.Retryable())
	})

	t.Run("unknown token", func(t *testing.T) {
		baseURL, _ := setupGateServer(t)
		client := gatesdk.NewClient(baseURL)

		raw := mintToken(t, map[string]any{"userId": "ghost"})
		_, err := client.Whoami(t.Context(), raw)

		var apiErr *gatesdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 401, apiErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeTokenInvalid, apiErr.Code)
		require.Equal(t, "Invalid or expired access token", apiErr.Message)
	})

	t.Run("brute force block discloses retry-after", func(t *testing.T) {
		baseURL, _ := setupGateServer(t)
		client := gatesdk.NewClient(baseURL)

		raw := mintToken(t, map[string]any{"userId": "ghost"})
		for range 5 {
			_, err := client.Whoami(t.Context(), raw)
			require.Error(t, err)
		}

		_, err := client.Whoami(t.Context(), raw)

		var apiErr *gatesdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 429, apiErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeBruteForceBlocked, apiErr.Code)
		require.Positive(t, apiErr.RetryAfter)
		require.True(t, apiErr.Retryable())
	})
}

// TestStreamHandshake verifies the stream connect route end to end.
func TestStreamHandshake(t *testing.T) {
	baseURL, st := setupGateServer(t)
	client := gatesdk.NewClient(baseURL)

	raw := mintToken(t, map[string]any{
		"userId": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	seedSession(t, st, raw, "u1", "user")

	hs, err := client.StreamHandshake(t.Context(), raw)
	require.NoError(t, err)
	require.Equal(t, "ready", hs.Status)
	require.Equal(t, "u1", hs.UserID)
	require.Equal(t, "sess-u1", hs.SessionID)
}
