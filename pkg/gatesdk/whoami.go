package gatesdk

import (
	"context"
	"net/http"
)

// WhoamiResponse is the identity the gate resolved for a credential.
type WhoamiResponse struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Whoami validates the given access token and returns the identity it
// authenticates. Rejections come back as *APIError.
func (c *Client) Whoami(ctx context.Context, accessToken string) (*WhoamiResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/whoami", accessToken)
	if err != nil {
		return nil, err
	}

	var who WhoamiResponse
	if err := decodeJSON(resp, &who, http.StatusOK); err != nil {
		return nil, err
	}

	return &who, nil
}

// StreamHandshakeResponse acknowledges an authenticated connect attempt.
type StreamHandshakeResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

// StreamHandshake authenticates a stream connect attempt. There is no
// retry path inside a connection; a rejection means reconnecting with a
// fresh credential.
func (c *Client) StreamHandshake(ctx context.Context, accessToken string) (*StreamHandshakeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/stream", accessToken)
	if err != nil {
		return nil, err
	}

	var hs StreamHandshakeResponse
	if err := decodeJSON(resp, &hs, http.StatusOK); err != nil {
		return nil, err
	}

	return &hs, nil
}
