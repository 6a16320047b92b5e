package routing

import (
	"context"
	"fmt"
	"safe-route-service/internal/domain"
	"slices"
)

// StaticProvider serves fixed routes keyed by origin and destination.
// Used for local runs and tests.
type StaticProvider struct {
	m map[string][]domain.RouteCandidate
	// Returned for pairs with no entry when set.
	Fallback []domain.RouteCandidate
}

type StaticPair struct {
	From, To string
	Routes   []domain.RouteCandidate
}

func NewStaticProvider(pairs []StaticPair) *StaticProvider {
	m := make(map[string][]domain.RouteCandidate, len(pairs))
	for _, p := range pairs {
		m[normalize(p.From)+"|"+normalize(p.To)] = p.Routes
	}
	return &StaticProvider{m: m}
}

func (p *StaticProvider) FetchRoutes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	routes, ok := p.m[normalize(origin)+"|"+normalize(destination)]
	if !ok {
		routes = p.Fallback
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no static routes for %q -> %q", domain.ErrNoRouteFound, origin, destination)
	}

	return slices.Clone(routes), nil
}

// DemoRoutes returns two walking routes across central Bengaluru, matching
// the bundled incident seed data.
func DemoRoutes() []domain.RouteCandidate {
	return []domain.RouteCandidate{
		{
			ID:      "route-1",
			Label:   "via MG Road",
			Summary: "MG Road",
			Points: []domain.Coordinates{
				{Lat: 12.9716, Lon: 77.5946},
				{Lat: 12.9740, Lon: 77.6000},
				{Lat: 12.9755, Lon: 77.6060},
				{Lat: 12.9763, Lon: 77.6101},
			},
			DistanceMeters:  1850,
			DurationSeconds: 1380,
		},
		{
			ID:      "route-2",
			Label:   "via Residency Road",
			Summary: "Residency Road",
			Points: []domain.Coordinates{
				{Lat: 12.9716, Lon: 77.5946},
				{Lat: 12.9690, Lon: 77.6010},
				{Lat: 12.9705, Lon: 77.6070},
				{Lat: 12.9763, Lon: 77.6101},
			},
			DistanceMeters:  2100,
			DurationSeconds: 1560,
		},
	}
}
