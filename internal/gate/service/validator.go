package service

import (
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/domain"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/tokenx"
)

// Reason explains why a credential failed validation. Reasons are for
// logs and internal decisions only; clients always get a generic
// message so nothing about stored state leaks.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMalformed       Reason = "malformed"
	ReasonExpired         Reason = "expired"
	ReasonHashMismatch    Reason = "hash_mismatch"
	ReasonPrefixMismatch  Reason = "prefix_mismatch"
	ReasonSessionInactive Reason = "session_inactive"
	ReasonUserMismatch    Reason = "user_mismatch"
	ReasonRefreshInvalid  Reason = "refresh_invalid"
)

// Result is the outcome of validating one credential.
type Result struct {
	Valid     bool
	Reason    Reason
	UserID    string
	ExpiresAt time.Time
}

// MinRefreshTokenLength is the floor below which a refresh credential
// is rejected as malformed without touching the stored secret.
const MinRefreshTokenLength = 32

// TokenValidator checks presented tokens against stored session
// records. It never stores raw tokens; every comparison goes through
// the salted digest in constant time.
type TokenValidator struct {
	// Salt feeds every digest computation. Derive it from the master
	// secret with a dedicated purpose string.
	Salt string

	// PrefixLength is how many leading characters of an access token
	// form its lookup prefix. Zero means tokenx.DefaultPrefixLength.
	PrefixLength int
}

func (v *TokenValidator) prefixLength() int {
	if v.PrefixLength > 0 {
		return v.PrefixLength
	}
	return tokenx.DefaultPrefixLength
}

// ValidateToken checks a bare token: structure, expiry, then the stored
// digest and prefix when supplied (empty means no check). Checks run
// cheapest-first so a malformed token never costs a hash.
func (v *TokenValidator) ValidateToken(raw, storedPrefix, storedDigest string, now time.Time) Result {
	tok, err := tokenx.ParseWithMinLength(raw, v.prefixLength())
	if err != nil {
		return Result{Reason: ReasonMalformed}
	}

	if tok.ExpiredAt(now) {
		return expiredResult(tok)
	}

	if storedDigest != "" && !cryptox.VerifyToken(raw, storedDigest, v.Salt) {
		return Result{Reason: ReasonHashMismatch}
	}

	if storedPrefix != "" && tok.Prefix(v.prefixLength()) != storedPrefix {
		return Result{Reason: ReasonPrefixMismatch}
	}

	claims, _ := tok.Claims()
	res := Result{Valid: true, UserID: claims.SubjectID()}
	if claims.HasExpiry() {
		res.ExpiresAt = claims.ExpiresAt.Time
	}
	return res
}

// ValidateSessionToken checks a token against its full session record.
// An inactive session wins over every other failure: a revoked session
// must read as revoked even when the token is also expired or mangled.
func (v *TokenValidator) ValidateSessionToken(raw string, session domain.Session, now time.Time) Result {
	if !session.IsActive() {
		return Result{Reason: ReasonSessionInactive}
	}

	res := v.ValidateToken(raw, session.AccessTokenPrefix, session.AccessTokenHash, now)
	if !res.Valid {
		return res
	}

	if res.UserID != "" && res.UserID != session.UserID {
		return Result{Reason: ReasonUserMismatch}
	}

	res.UserID = session.UserID
	if res.ExpiresAt.IsZero() {
		res.ExpiresAt = session.ExpiresAt
	}
	return res
}

// ValidateRefreshToken checks an opaque refresh credential against the
// secret bound to the session. Both sides are digested before the
// constant-time compare so the stored secret never meets the presented
// one directly.
func (v *TokenValidator) ValidateRefreshToken(raw string, session domain.Session, now time.Time) Result {
	if !session.IsActive() {
		return Result{Reason: ReasonSessionInactive}
	}

	if len(raw) < MinRefreshTokenLength {
		return Result{Reason: ReasonMalformed}
	}

	if session.ExpiredAt(now) {
		return Result{Reason: ReasonExpired}
	}

	presented, err := cryptox.HashToken(raw, v.Salt)
	if err != nil {
		return Result{Reason: ReasonRefreshInvalid}
	}
	stored, err := cryptox.HashToken(session.RefreshSecret, v.Salt)
	if err != nil {
		return Result{Reason: ReasonRefreshInvalid}
	}

	if !cryptox.CompareDigests(presented, stored) {
		return Result{Reason: ReasonRefreshInvalid}
	}

	return Result{Valid: true, UserID: session.UserID, ExpiresAt: session.ExpiresAt}
}

// BatchEntry pairs a raw token with the digest it should match.
type BatchEntry struct {
	Raw    string
	Digest string
}

// ValidateBatch validates each entry independently; one bad credential
// never poisons its neighbours. Results are index-aligned with entries.
func (v *TokenValidator) ValidateBatch(entries []BatchEntry, now time.Time) []Result {
	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = v.ValidateToken(e.Raw, "", e.Digest, now)
	}
	return results
}

// expiredResult reports expiry while still surfacing whatever subject
// the claims carry, which is useful for audit logs.
func expiredResult(tok tokenx.Token) Result {
	res := Result{Reason: ReasonExpired}
	if claims, err := tok.Claims(); err == nil {
		res.UserID = claims.SubjectID()
		if claims.HasExpiry() {
			res.ExpiresAt = claims.ExpiresAt.Time
		}
	}
	return res
}
