package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/store"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
	"github.com/gatehouselabs/gatehouse/pkg/tokenx"
)

var (
	// ErrTokenInvalid covers every credential failure presented to a
	// caller. The specific reason stays in the logs.
	ErrTokenInvalid = errors.New("token_invalid")

	// ErrAccountLocked reports a structurally valid credential whose
	// owner is locked out.
	ErrAccountLocked = errors.New("account_locked")

	// ErrSessionInactive reports a credential bound to a revoked
	// session. Callers treat it like a locked account.
	ErrSessionInactive = errors.New("session_inactive")
)

// DefaultResolveTimeout bounds the store lookups behind one resolve.
const DefaultResolveTimeout = 5 * time.Second

// Identity is the authenticated principal a resolved credential maps to.
type Identity struct {
	UserID    string
	SessionID string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// SessionResolver turns a raw bearer credential into an Identity:
// prefix lookup, full validation against the session record, then the
// account state check. Store errors and validation failures both come
// back as ErrTokenInvalid so callers cannot tell a missing session from
// a bad digest.
type SessionResolver struct {
	Store     store.Store
	Validator *TokenValidator

	// Timeout bounds each resolve; zero means DefaultResolveTimeout.
	Timeout time.Duration
}

func (r *SessionResolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultResolveTimeout
}

// Resolve validates raw and returns the identity it authenticates.
func (r *SessionResolver) Resolve(ctx context.Context, raw string, now time.Time) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	log := slogx.FromContext(ctx)

	tok, err := tokenx.ParseWithMinLength(raw, r.Validator.prefixLength())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrTokenInvalid, ReasonMalformed)
	}

	session, err := r.Store.Sessions().GetSessionByAccessPrefix(ctx, tok.Prefix(r.Validator.prefixLength()))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("session lookup failed", "error", err)
		}
		return Identity{}, fmt.Errorf("%w: unknown prefix", ErrTokenInvalid)
	}

	// A lapsed session record is as dead as a revoked one, even if the
	// token's own exp claim is still in the future.
	if session.ExpiredAt(now) {
		return Identity{}, fmt.Errorf("%w: %s", ErrTokenInvalid, ReasonExpired)
	}

	if res := r.Validator.ValidateSessionToken(raw, session, now); !res.Valid {
		log.Debug("token validation failed",
			"session_id", session.ID,
			"reason", string(res.Reason),
		)
		if res.Reason == ReasonSessionInactive {
			return Identity{}, ErrSessionInactive
		}
		return Identity{}, fmt.Errorf("%w: %s", ErrTokenInvalid, res.Reason)
	}

	user, err := r.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("user lookup failed", "error", err, "user_id", session.UserID)
		}
		return Identity{}, fmt.Errorf("%w: orphaned session", ErrTokenInvalid)
	}

	if user.Locked {
		log.Info("rejected credential for locked account", "user_id", user.ID)
		return Identity{}, ErrAccountLocked
	}

	return Identity{
		UserID:    user.ID,
		SessionID: session.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
