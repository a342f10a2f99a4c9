package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Rejection codes the gate returns. Mirrors the server's contract.
const (
	ErrorCodeTokenMissing      = "TOKEN_MISSING"
	ErrorCodeTokenInvalid      = "TOKEN_INVALID"
	ErrorCodeAccountLocked     = "ACCOUNT_LOCKED"
	ErrorCodeBruteForceBlocked = "BRUTE_FORCE_BLOCKED"
	ErrorCodeRateLimited       = "USER_RATE_LIMIT_EXCEEDED"
)

// APIError is a structured rejection from the gate.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the rejection code (e.g., "TOKEN_INVALID")
	Code string `json:"error"`

	// Message is the client-facing description. Deliberately generic
	// for authentication failures.
	Message string `json:"message"`

	// RetryAfter is the wait in seconds for 429 rejections, 0 otherwise.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether waiting RetryAfter seconds and retrying the
// same credential can succeed. Every other rejection needs a fresh
// credential.
func (e *APIError) Retryable() bool {
	return e.Code == ErrorCodeBruteForceBlocked || e.Code == ErrorCodeRateLimited
}

// parseErrorResponse turns a non-2xx body into an *APIError, falling
// back to a bare status error when the body is not the gate's JSON.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		return fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}
	return apiErr
}
