package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/service"
	"github.com/gatehouselabs/gatehouse/internal/gate/store"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	Resolver *service.SessionResolver
	Guard    *service.BruteForceGuard
	Limiter  *service.RequestRateLimiter
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	gateway := &AuthGateway{
		Resolver: r.Resolver,
		Guard:    r.Guard,
		Limiter:  r.Limiter,
	}

	// GET /v1/whoami - authenticated identity echo, strict pre-auth IP
	// limit since it is a cheap probe target.
	r.Mux.Handle("GET /v1/whoami",
		httpx.Chain(WhoamiHandler(),
			httpx.RateLimitByIP(httpx.StrictLimit),
			gateway.Middleware,
		),
	)

	// GET /v1/stream - WebSocket-style handshake; the only route where
	// the token query parameter is accepted.
	streamGateway := &AuthGateway{
		Resolver:        r.Resolver,
		Guard:           r.Guard,
		Limiter:         r.Limiter,
		AllowQueryToken: true,
	}
	r.Mux.Handle("GET /v1/stream",
		httpx.Chain(StreamHandshakeHandler(),
			httpx.RateLimitByIP(httpx.LenientLimit),
			streamGateway.Middleware,
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
