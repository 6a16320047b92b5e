package api

import (
	"net/http"
	"safe-route-service/internal/api/handlers"
	"safe-route-service/internal/ports"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	// Empty accepts any non-empty key.
	APIKeys []string
	// Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

type Deps struct {
	Analyzer handlers.RouteAnalyzer
	Pager    handlers.IncidentPager
	SOSRepo  ports.SOSRepository
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	if cfg.RateLimitRequests > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.Limit(
			cfg.RateLimitRequests,
			window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}

	r.Use(requireAPIKey(cfg.APIKeys))

	routeSafety := &handlers.RouteSafetyHandler{Analyzer: deps.Analyzer}
	incidents := &handlers.IncidentHandler{Pager: deps.Pager}
	sos := &handlers.SOSHandler{Repo: deps.SOSRepo}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusNotFound, handlers.CodeInvalidRequest, "unknown endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusMethodNotAllowed, handlers.CodeInvalidRequest, "method not allowed")
	})

	r.Get("/health", handlers.Health)
	r.Get("/route-safety", routeSafety.Get)
	r.Get("/api/v1/navigation/route", routeSafety.GetNavigationRoute)
	r.Post("/incidents/page", incidents.Page)
	r.Post("/sos", sos.Trigger)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
