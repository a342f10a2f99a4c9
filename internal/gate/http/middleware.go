package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// AccessTokenCookie is the cookie checked first during extraction.
const AccessTokenCookie = "accessToken"

// AuthGateway authenticates every request passing through it: extract
// the credential, gate on the caller's brute-force standing, resolve
// the credential to an identity, then enforce the per-user request
// budget. Any failing step short-circuits with its rejection code and
// feeds the brute-force guard.
type AuthGateway struct {
	Resolver *service.SessionResolver
	Guard    *service.BruteForceGuard
	Limiter  *service.RequestRateLimiter

	// AllowQueryToken permits the `token` query parameter as a
	// credential source. Only handshake-style routes (WebSocket
	// upgrades) should enable it; tokens in URLs end up in access logs.
	AllowQueryToken bool

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (g *AuthGateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Middleware wraps next with the full authentication pipeline.
func (g *AuthGateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)
		ip := httpx.ClientIP(r)
		now := g.now()

		blocked, err := g.Guard.IsBlocked(ctx, ip, now)
		if err != nil {
			log.Error("brute-force check failed", "error", err, "ip", ip)
			// Guard store failure fails closed for the request, but as
			// a plain auth failure so nothing about the guard leaks.
			writeRejection(w, http.StatusUnauthorized, CodeTokenInvalid)
			return
		}
		if blocked {
			wait, _ := g.Guard.RetryAfter(ctx, ip, now)
			log.Info("rejected blocked client", "ip", ip)
			writeRetryRejection(w, http.StatusTooManyRequests, CodeBruteForceBlocked, seconds(wait))
			return
		}

		raw, ok := g.extractToken(r)
		if !ok {
			writeRejection(w, http.StatusUnauthorized, CodeTokenMissing)
			return
		}

		identity, err := g.Resolver.Resolve(ctx, raw, now)
		if err != nil {
			if rerr := g.Guard.RecordFailure(ctx, ip, now); rerr != nil {
				log.Error("recording auth failure failed", "error", rerr, "ip", ip)
			}

			switch {
			case errors.Is(err, service.ErrAccountLocked), errors.Is(err, service.ErrSessionInactive):
				writeRejection(w, http.StatusForbidden, CodeAccountLocked)
			default:
				writeRejection(w, http.StatusUnauthorized, CodeTokenInvalid)
			}
			return
		}

		if err := g.Guard.RecordSuccess(ctx, ip); err != nil {
			log.Error("clearing auth failures failed", "error", err, "ip", ip)
		}

		decision, err := g.Limiter.Allow(ctx, identity.UserID, identity.Role, r.URL.Path, now)
		if err != nil {
			log.Error("rate-limit check failed", "error", err, "user_id", identity.UserID)
			writeRejection(w, http.StatusUnauthorized, CodeTokenInvalid)
			return
		}
		if !decision.Allowed {
			log.Info("rejected rate-limited user",
				"user_id", identity.UserID,
				"limit", decision.Limit,
				"path", r.URL.Path,
			)
			writeRetryRejection(w, http.StatusTooManyRequests, CodeRateLimited, seconds(decision.RetryAfter))
			return
		}

		// Informational only; downstream trust comes from the context.
		w.Header().Set("X-Auth-Status", "authenticated")
		w.Header().Set("X-User-ID", identity.UserID)
		w.Header().Set("X-Session-ID", identity.SessionID)
		w.Header().Set("X-Auth-Timestamp", now.UTC().Format(time.RFC3339))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// extractToken pulls the credential from the request, first match wins:
// accessToken cookie, then Authorization bearer header, then the token
// query parameter when enabled.
func (g *AuthGateway) extractToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	if h := r.Header.Get("Authorization"); h != "" {
		scheme, rest, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			if tok := strings.TrimSpace(rest); tok != "" {
				return tok, true
			}
		}
	}

	if g.AllowQueryToken {
		if tok := r.URL.Query().Get("token"); tok != "" {
			return tok, true
		}
	}

	return "", false
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
