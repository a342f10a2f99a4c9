package http

import (
	"net/http"

	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// StreamHandshakeResponse acknowledges an authenticated stream
// handshake. The actual streaming transport is owned by the upstream
// service; this route only authenticates the connect attempt, which is
// why its gateway allows the token query parameter.
type StreamHandshakeResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

// StreamHandshakeHandler authenticates WebSocket-style connect
// attempts. There is no retry path inside a connection: a rejected
// handshake means the client must reconnect with a fresh credential.
func StreamHandshakeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeRejection(w, http.StatusUnauthorized, CodeTokenMissing)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, StreamHandshakeResponse{
			Status:    "ready",
			UserID:    id.UserID,
			SessionID: id.SessionID,
		})
	}
}
