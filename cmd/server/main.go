package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"safe-route-service/internal/adapters/cache"
	"safe-route-service/internal/adapters/repositories"
	"safe-route-service/internal/adapters/routing"
	"safe-route-service/internal/adapters/scoring"
	"safe-route-service/internal/api"
	"safe-route-service/internal/config"
	"safe-route-service/internal/platform/db"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"safe-route-service/internal/services"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, route and model providers)
// behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	obs.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := run(cfg); err != nil {
		obs.L().Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run owns every resource it opens; returning lets the deferred closes run.
func run(cfg *config.Config) error {
	log := obs.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   ports.IncidentStore
		sosRepo ports.SOSRepository
		geo     routing.GeocodeCache
	)

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		if err := repositories.InitSchema(ctx, conn); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}

		store = repositories.NewPostgresIncidentStore(conn, cfg.MaxCorridorIncidents)
		sosRepo = repositories.NewPostgresSOSRepository(conn)
		geo = cache.NewSQLGeocodeCache(conn)
	} else {
		mem, err := repositories.NewMemoryIncidentStoreFromJSON(cfg.SeedPath, cfg.MaxCorridorIncidents)
		if err != nil {
			return fmt.Errorf("load incident seeds from %q: %w", cfg.SeedPath, err)
		}
		store = mem
		sosRepo = repositories.NewMemorySOSRepository()
		log.Warn().Str("seed_path", cfg.SeedPath).Msg("DATABASE_URL not set, using in-memory incident store")
	}

	provider, err := newRouteProvider(cfg, geo)
	if err != nil {
		return fmt.Errorf("route provider: %w", err)
	}

	scorer, closeScorer, err := newScorer(cfg)
	if err != nil {
		return fmt.Errorf("safety scorer: %w", err)
	}
	defer closeScorer()

	analyzer := services.NewRouteSafetyAnalyzer(provider, store, scorer, services.AnalyzerOptions{
		MaxConcurrentScoring: cfg.MaxConcurrentScoring,
		RequestTimeout:       cfg.RequestTimeout,
		CorridorBufferMeters: cfg.CorridorBufferMeters,
		CorridorMaxZones:     cfg.CorridorMaxZones,
		ProviderName:         cfg.RouteProvider,
	})

	router := api.NewRouter(api.Deps{
		Analyzer: analyzer,
		Pager:    services.NewIncidentPager(store),
		SOSRepo:  sosRepo,
	}, api.RouterConfig{
		APIKeys:           cfg.APIKeys,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSOrigins:       cfg.CORSOrigins,
	})

	// Write timeout leaves headroom over the analysis deadline.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("route_provider", cfg.RouteProvider).
			Str("scorer", cfg.ScorerBackend).
			Bool("cache", cfg.RedisURL != "").
			Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}

func newRouteProvider(cfg *config.Config, geo routing.GeocodeCache) (ports.RouteProvider, error) {
	var (
		next ports.RouteProvider
		err  error
	)

	switch cfg.RouteProvider {
	case "google":
		next, err = routing.NewGoogleDirectionsProvider(cfg.GoogleMapsAPIKey, cfg.RouteTimeout)
	case "ors":
		next, err = routing.NewORSDirectionsProvider(cfg.ORSAPIKey, cfg.ORSProfile, cfg.RouteTimeout, geo)
	case "static":
		p := routing.NewStaticProvider(nil)
		p.Fallback = routing.DemoRoutes()
		next = p
	default:
		err = fmt.Errorf("unknown route provider %q", cfg.RouteProvider)
	}
	if err != nil {
		return nil, err
	}

	return routing.NewBreakerProvider(next, routing.BreakerConfig{Name: cfg.RouteProvider}), nil
}

// newScorer builds the model-backed scorer, fronted by the Redis assessment
// cache when REDIS_URL is set. The returned func releases the cache client.
func newScorer(cfg *config.Config) (ports.SafetyScorer, func(), error) {
	var gen ports.TextGenerator

	switch cfg.ScorerBackend {
	case "gemini":
		g, err := scoring.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ScoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		gen = g
	case "openai":
		g, err := scoring.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.ScoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		gen = g
	default:
		gen = scoring.UnavailableGenerator{}
	}

	scorer := services.NewLLMSafetyScorer(gen, cfg.ScoreTimeout)
	if cfg.RedisURL == "" {
		return scorer, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	closeFn := func() {
		if err := client.Close(); err != nil {
			obs.L().Warn().Err(err).Msg("close redis client")
		}
	}
	return services.NewCachedScorer(scorer, cache.NewRedisAssessmentCache(client, cfg.CacheTTL)), closeFn, nil
}
