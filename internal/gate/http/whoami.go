package http

import (
	"net/http"
	"time"

	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// WhoamiResponse echoes the identity the gateway resolved for the
// calling credential.
type WhoamiResponse struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// WhoamiHandler returns the authenticated caller's identity. It only
// runs behind the auth gateway, so a missing identity is a wiring bug.
func WhoamiHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeRejection(w, http.StatusUnauthorized, CodeTokenMissing)
			return
		}

		resp := WhoamiResponse{
			UserID:    id.UserID,
			SessionID: id.SessionID,
			Username:  id.Username,
			Role:      id.Role,
		}
		if !id.ExpiresAt.IsZero() {
			resp.ExpiresAt = id.ExpiresAt.UTC().Format(time.RFC3339)
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
