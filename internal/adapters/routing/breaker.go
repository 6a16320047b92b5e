package routing

import (
	"context"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/metrics"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

var _ ports.RouteProvider = (*BreakerProvider)(nil)

// BreakerProvider wraps a RouteProvider with a circuit breaker.
// An open circuit fails fast with ErrUpstreamUnavailable.
type BreakerProvider struct {
	next ports.RouteProvider
	cb   *gobreaker.CircuitBreaker[[]domain.RouteCandidate]
}

type BreakerConfig struct {
	Name string
	// Consecutive failures that open the circuit.
	MaxFailures uint32
	// Time spent open before probing again.
	OpenTimeout time.Duration
}

func NewBreakerProvider(next ports.RouteProvider, cfg BreakerConfig) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = "route-provider"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]domain.RouteCandidate](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A provider saying "no path" is a healthy answer, and a caller
		// giving up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			var gone callerGone
			return err == nil ||
				errors.Is(err, domain.ErrNoRouteFound) ||
				errors.Is(err, domain.ErrInvalidRequest) ||
				errors.Is(err, context.Canceled) ||
				errors.As(err, &gone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			obs.L().Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) FetchRoutes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	routes, err := b.cb.Execute(func() ([]domain.RouteCandidate, error) {
		routes, err := b.next.FetchRoutes(ctx, origin, destination)
		if err != nil && ctx.Err() != nil {
			return nil, callerGone{err: err}
		}
		return routes, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	var gone callerGone
	if errors.As(err, &gone) {
		err = gone.err
	}
	return routes, err
}

// callerGone marks a failure that happened after the caller's own context
// ended. It is not counted against the provider.
type callerGone struct{ err error }

func (c callerGone) Error() string { return c.err.Error() }
func (c callerGone) Unwrap() error { return c.err }

// State reports the breaker's current state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
