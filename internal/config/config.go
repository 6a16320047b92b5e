package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Empty means any non-empty x-api-key is accepted.
	APIKeys []string

	// Empty selects the in-memory incident store seeded from SeedPath.
	DatabaseURL string
	SeedPath    string

	// Empty disables the assessment cache.
	RedisURL string
	CacheTTL time.Duration

	RouteProvider    string // google | ors | static
	GoogleMapsAPIKey string
	ORSAPIKey        string
	ORSProfile       string

	ScorerBackend string // gemini | openai | none
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RouteTimeout         time.Duration
	ScoreTimeout         time.Duration
	RequestTimeout       time.Duration
	MaxConcurrentScoring int
	CorridorBufferMeters float64
	CorridorMaxZones     int
	MaxCorridorIncidents int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var errs []error

	cfg := &Config{
		Port:      Get("PORT", "8080"),
		LogLevel:  Get("LOG_LEVEL", "info"),
		LogFormat: Get("LOG_FORMAT", "json"),
		APIKeys:   List("API_KEYS"),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SeedPath:    Get("SEED_PATH", "data/seeds/incidents.json"),

		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),

		RouteProvider:    strings.ToLower(Get("ROUTE_PROVIDER", "google")),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		ORSProfile:       Get("ORS_PROFILE", "foot-walking"),

		ScorerBackend: strings.ToLower(Get("SCORER_BACKEND", "gemini")),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   Get("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: Get("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   Get("OPENAI_MODEL", "gpt-4o-mini"),

		CORSOrigins: List("CORS_ORIGINS"),
	}

	cfg.CacheTTL = duration("CACHE_TTL", 15*time.Minute, &errs)
	cfg.RouteTimeout = duration("ROUTE_TIMEOUT", 8*time.Second, &errs)
	cfg.ScoreTimeout = duration("SCORE_TIMEOUT", 10*time.Second, &errs)
	cfg.RequestTimeout = duration("REQUEST_TIMEOUT", 20*time.Second, &errs)
	cfg.RateLimitWindow = duration("RATE_LIMIT_WINDOW", time.Minute, &errs)

	cfg.MaxConcurrentScoring = integer("MAX_CONCURRENT_SCORING", 3, &errs)
	cfg.CorridorMaxZones = integer("CORRIDOR_MAX_ZONES", 8, &errs)
	cfg.MaxCorridorIncidents = integer("MAX_CORRIDOR_INCIDENTS", 200, &errs)
	cfg.RateLimitRequests = integer("RATE_LIMIT_REQUESTS", 100, &errs)
	cfg.CorridorBufferMeters = float("CORRIDOR_BUFFER_METERS", 250, &errs)

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("load config: %w", errors.Join(errs...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	switch c.RouteProvider {
	case "google":
		if strings.TrimSpace(c.GoogleMapsAPIKey) == "" {
			errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required when ROUTE_PROVIDER=google"))
		}
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			errs = append(errs, errors.New("ORS_API_KEY is required when ROUTE_PROVIDER=ors"))
		}
	case "static":
	default:
		errs = append(errs, fmt.Errorf("ROUTE_PROVIDER %q is not one of google, ors, static", c.RouteProvider))
	}

	switch c.ScorerBackend {
	case "gemini", "openai", "none":
	default:
		errs = append(errs, fmt.Errorf("SCORER_BACKEND %q is not one of gemini, openai, none", c.ScorerBackend))
	}

	if c.MaxConcurrentScoring < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENT_SCORING must be at least 1"))
	}
	if c.CorridorMaxZones < 1 {
		errs = append(errs, errors.New("CORRIDOR_MAX_ZONES must be at least 1"))
	}
	if c.CorridorBufferMeters < 0 {
		errs = append(errs, errors.New("CORRIDOR_BUFFER_METERS must not be negative"))
	}
	if c.RouteTimeout <= 0 || c.ScoreTimeout <= 0 || c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("ROUTE_TIMEOUT, SCORE_TIMEOUT and REQUEST_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// List splits a comma-separated environment value, dropping blanks.
func List(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func duration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func integer(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func float(key string, fallback float64, errs *[]error) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, v))
		return fallback
	}
	return f
}
