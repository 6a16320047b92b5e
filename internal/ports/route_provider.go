package ports

import (
	"context"
	"safe-route-service/internal/domain"
)

// Contract for fetching candidate routes between two locations.
// Locations are free-form addresses or "lat,lng" strings.
type RouteProvider interface {
	// Return candidate routes in provider order.
	// Fails with domain.ErrNoRouteFound when the provider has no path and
	// domain.ErrUpstreamUnavailable when the provider cannot be reached.
	FetchRoutes(ctx context.Context, origin string, destination string) ([]domain.RouteCandidate, error)
}
