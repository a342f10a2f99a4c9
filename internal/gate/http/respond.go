package http

import (
	"net/http"
	"strconv"

	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// Rejection codes exposed to clients. The code names the failure class;
// the message stays generic so response content never distinguishes a
// bad digest from an expired claim.
const (
	CodeTokenMissing      = "TOKEN_MISSING"
	CodeTokenInvalid      = "TOKEN_INVALID"
	CodeAccountLocked     = "ACCOUNT_LOCKED"
	CodeBruteForceBlocked = "BRUTE_FORCE_BLOCKED"
	CodeRateLimited       = "USER_RATE_LIMIT_EXCEEDED"
)

// genericAuthMessage is the only message authentication failures carry.
const genericAuthMessage = "Invalid or expired access token"

type rejectionBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeRejection(w http.ResponseWriter, status int, code string) {
	httpx.WriteJSON(w, status, rejectionBody{
		Error:   code,
		Message: genericAuthMessage,
	})
}

func writeRetryRejection(w http.ResponseWriter, status int, code string, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httpx.WriteJSON(w, status, rejectionBody{
		Error:      code,
		Message:    "Too many requests, retry later",
		RetryAfter: retryAfter,
	})
}
