package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"finquest/internal/cache"
	"finquest/internal/log"
	"finquest/internal/middleware/ratelimit"
	"finquest/internal/middleware/security"
	"finquest/internal/middleware/trace"
	"finquest/internal/services"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	maxBodyBytes         = 1 << 20
)

// Config holds the HTTP layer settings that are not services.
type Config struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Services are the collaborators the handlers call. Credentials and Sync
// may be nil when no aggregator is configured.
type Services struct {
	Forecast    *services.ForecastService
	Budgets     *services.BudgetService
	Sync        *services.SyncService
	Credentials *services.CredentialService
}

// Server is the JSON API server.
type Server struct {
	http.Server

	forecast    *services.ForecastService
	budgets     *services.BudgetService
	sync        *services.SyncService
	credentials *services.CredentialService

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	corsConfig := security.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.AllowedOrigins
	}
	limitConfig := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limitConfig.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		forecast:         svc.Forecast,
		budgets:          svc.Budgets,
		sync:             svc.Sync,
		credentials:      svc.Credentials,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limitConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		cacheManager:     cache.NewManager(logger),
		started:          time.Now(),
	}

	if s.forecast != nil {
		s.cacheManager.Register(s.forecast.Cache())
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	routes := []route{
		{http.MethodGet, "/health", s.handleHealth},
		{http.MethodGet, "/healthz", s.handleHealth},
		{http.MethodGet, "/readyz", s.handleReady},
		{http.MethodGet, "/metrics", s.handleMetrics},

		{http.MethodGet, "/forecast", s.handleForecast},
		{http.MethodGet, "/transactions", s.handleTransactions},
		{http.MethodGet, "/budget", s.handleGetBudget},
		{http.MethodPost, "/budget", s.handleSaveBudget},

		{http.MethodGet, "/plaid/link-token", s.handleLinkToken},
		{http.MethodPost, "/plaid/exchange-token", s.handleExchangeToken},
		{http.MethodGet, "/plaid/transactions", s.handlePlaidTransactions},
		{http.MethodPost, "/plaid/sync-transactions", s.handleSyncTransactions},
	}
	mux := newMux(routes)

	s.Handler = chain(mux,
		s.traceMiddleware.Recover,
		s.traceMiddleware.Middleware,
		security.NewCORS(corsConfig).Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		detector.Middleware(logger, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusBadRequest, "bad request")
		}),
		s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, detector.ExtractClientIP(r),
				log.FieldPath, r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}, http.MethodPost),
	)

	return s
}

type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

// newMux registers every route by method and answers other methods on a
// known path with a JSON 405, and unknown paths with a JSON 404.
func newMux(routes []route) *http.ServeMux {
	mux := http.NewServeMux()
	allowed := make(map[string][]string)
	var paths []string
	for _, rt := range routes {
		mux.HandleFunc(rt.method+" "+rt.path, rt.handler)
		if _, ok := allowed[rt.path]; !ok {
			paths = append(paths, rt.path)
		}
		allowed[rt.path] = append(allowed[rt.path], rt.method)
	}
	for _, path := range paths {
		allow := strings.Join(allowed[path], ", ")
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Allow", allow)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return mux
}

// chain applies middleware so that the first one listed is outermost.
func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
