package domain

import "errors"

// Failure taxonomy shared by adapters, services and the HTTP surface.
// Adapters wrap these with fmt.Errorf("%w: %w", ErrX, cause) so callers
// can classify with errors.Is without seeing upstream detail.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNoRouteFound        = errors.New("no route found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStoreUnavailable    = errors.New("incident store unavailable")
	ErrScoringTimeout      = errors.New("safety scoring timed out")
	ErrScoringMalformed    = errors.New("safety scoring returned malformed payload")
	ErrScoringUnavailable  = errors.New("safety scoring unavailable")
)
