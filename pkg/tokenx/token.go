package tokenx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultPrefixLength is the number of leading characters used as the
// store lookup key for a credential. It is a quick-rejection key only,
// never a security boundary on its own.
const DefaultPrefixLength = 20

// ErrMalformed reports a credential that is not structurally valid:
// wrong number of segments, an empty segment, or a raw value shorter
// than the configured prefix length.
var ErrMalformed = errors.New("tokenx: malformed token")

// Token is a parsed three-part dot-delimited bearer credential
// (header.payload.signature). Parsing is structural only; claim
// extraction happens lazily via Claims.
type Token struct {
	raw     string
	header  string
	payload string
	sig     string
}

// Parse splits raw into its three segments and validates the structure
// against DefaultPrefixLength. Use ParseWithMinLength when the prefix
// length is configured differently.
func Parse(raw string) (Token, error) {
	return ParseWithMinLength(raw, DefaultPrefixLength)
}

// ParseWithMinLength is Parse with an explicit minimum total length.
// A credential shorter than the prefix length could never be looked up
// by prefix, so it is rejected outright.
func ParseWithMinLength(raw string, minLen int) (Token, error) {
	if len(raw) < minLen {
		return Token{}, fmt.Errorf("%w: shorter than minimum length %d", ErrMalformed, minLen)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Token{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Token{}, fmt.Errorf("%w: empty segment", ErrMalformed)
		}
	}

	return Token{
		raw:     raw,
		header:  parts[0],
		payload: parts[1],
		sig:     parts[2],
	}, nil
}

// Raw returns the original credential string.
func (t Token) Raw() string { return t.raw }

// Prefix returns the first n characters of the raw credential. If n
// exceeds the credential length the whole credential is returned.
func (t Token) Prefix(n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(t.raw) {
		return t.raw
	}
	return t.raw[:n]
}

// Claims base64url-decodes the payload segment and parses it as a JSON
// claim set. Decode or parse failures are surfaced, never swallowed.
func (t Token) Claims() (Claims, error) {
	data, err := decodeSegment(t.payload)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: payload decode: %v", ErrMalformed, err)
	}

	var c Claims
	if err := json.Unmarshal(data, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: payload parse: %v", ErrMalformed, err)
	}
	return c, nil
}

// ExpiredAt reports whether the credential is expired at the given time.
// A missing exp claim means the credential never expires at this level;
// callers wanting stricter behaviour must check explicitly. Any decode
// failure is treated as expired so a corrupt payload fails closed.
func (t Token) ExpiredAt(now time.Time) bool {
	c, err := t.Claims()
	if err != nil {
		return true
	}
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Time.Before(now)
}

// SubjectID returns the claim set's user identifier, or "" when the
// payload is undecodable or carries no subject.
func (t Token) SubjectID() string {
	c, err := t.Claims()
	if err != nil {
		return ""
	}
	return c.SubjectID()
}

// decodeSegment decodes a base64url segment, restoring stripped padding
// first. Issuers differ on whether they pad, so we accept both.
func decodeSegment(s string) ([]byte, error) {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return base64.URLEncoding.DecodeString(s)
}
