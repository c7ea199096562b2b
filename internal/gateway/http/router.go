package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService     *service.TokenService
	ClientService    *service.ClientService
	AuthorizeService *service.AuthorizeService

	Dispatcher *mcp.Dispatcher
	Sessions   *mcp.SessionRegistry

	// RequireAuth gates the protocol endpoints behind bearer authentication.
	RequireAuth bool
	Heartbeat   time.Duration
}

func NewRouter(
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		issuer:       issuer,
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
	r.registerOAuth2()
	r.registerProtocol()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// GET /.well-known/... - discovery document, polled by clients
	r.Mux.Handle("GET /.well-known/oauth-authorization-server",
		httpx.Chain(DiscoveryHandler(r.issuer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /register - dynamic client registration, moderate limit
	registerHandler := &RegisterHandler{ClientService: r.ClientService}
	r.Mux.Handle("POST /register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /authorize - issues credentials, strict limit
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}
	r.Mux.Handle("GET /authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /token - strict rate limit by IP
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /introspect - moderate rate limit
	introspectHandler := &IntrospectHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProtocol() {
	rpcHandler := &RPCHandler{
		Dispatcher: r.Dispatcher,
		Sessions:   r.Sessions,
	}
	eventsHandler := &EventsHandler{
		Sessions:  r.Sessions,
		Heartbeat: r.Heartbeat,
	}

	// Bearer authentication attaches identity either way; RequireAuth decides
	// whether anonymous requests are rejected.
	authn := httpx.AuthnMiddleware(r.TokenService, r.RequireAuth)

	r.Mux.Handle("POST /mcp", httpx.Chain(rpcHandler, authn))
	r.Mux.Handle("GET /mcp", httpx.Chain(eventsHandler, authn))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
