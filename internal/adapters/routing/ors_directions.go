package routing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/httpx"
	"safe-route-service/internal/platform/obs"
	"time"

	json "github.com/goccy/go-json"
)

// Persistent address -> coordinates cache consulted before geocoding.
type GeocodeCache interface {
	Lookup(ctx context.Context, address string) (domain.Coordinates, bool, error)
	Store(ctx context.Context, address string, c domain.Coordinates) error
}

type directionsRequest struct {
	Coordinates       [][]float64        `json:"coordinates"`
	AlternativeRoutes *alternativeRoutes `json:"alternative_routes,omitempty"`
}

type alternativeRoutes struct {
	TargetCount  int     `json:"target_count"`
	ShareFactor  float64 `json:"share_factor"`
	WeightFactor float64 `json:"weight_factor"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSDirectionsProvider implements RouteProvider using OpenRouteService.
//
// It coordinates:
//   - Location parsing and geocoding
//   - Persistent geocode caching
//   - Directions calls with alternatives, retry and backoff
//
// The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	client       *httpx.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	alternatives int
	timeout      time.Duration
	geocodeCache GeocodeCache
}

func NewORSDirectionsProvider(
	apiKey string,
	profile string,
	timeout time.Duration,
	geocodeCache GeocodeCache,
) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if profile == "" {
		profile = "foot-walking"
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &ORSDirectionsProvider{
		client:       httpx.New(timeout),
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      profile,
		alternatives: 3,
		timeout:      timeout,
		geocodeCache: geocodeCache,
	}, nil
}

func (o *ORSDirectionsProvider) FetchRoutes(
	ctx context.Context,
	origin string,
	destination string,
) (_ []domain.RouteCandidate, err error) {
	defer obs.Time(ctx, "ors.FetchRoutes")(&err)

	if normalize(origin) == "" || normalize(destination) == "" {
		return nil, fmt.Errorf("%w: origin and destination must be non-empty", domain.ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	from, err := o.resolve(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("resolve origin: %w", err)
	}
	to, err := o.resolve(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	bodyObj := directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	}
	if o.alternatives > 1 {
		bodyObj.AlternativeRoutes = &alternativeRoutes{
			TargetCount:  o.alternatives,
			ShareFactor:  0.6,
			WeightFactor: 1.4,
		}
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		// ORS answers 404 when no path exists between the points.
		var se *httpx.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: ors directions: %w", domain.ErrNoRouteFound, err)
		}
		return nil, fmt.Errorf("%w: ors directions: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("%w: decode directions response: %w", domain.ErrUpstreamUnavailable, err)
	}

	if len(dr.Features) == 0 {
		return nil, fmt.Errorf("%w: ors directions returned no routes", domain.ErrNoRouteFound)
	}

	out := make([]domain.RouteCandidate, 0, len(dr.Features))
	for i, f := range dr.Features {
		points := make([]domain.Coordinates, 0, len(f.Geometry.Coordinates))
		for _, c := range f.Geometry.Coordinates {
			if len(c) < 2 {
				return nil, fmt.Errorf("%w: route %d: invalid coordinate", domain.ErrUpstreamUnavailable, i)
			}
			points = append(points, domain.Coordinates{Lon: c[0], Lat: c[1]})
		}

		// ORS returns float metrics; round to nearest integer for domain consistency.
		out = append(out, domain.RouteCandidate{
			ID:              routeID(i),
			Label:           routeLabel(i, ""),
			Points:          points,
			DistanceMeters:  int(math.Round(f.Properties.Summary.Distance)),
			DurationSeconds: int(math.Round(f.Properties.Summary.Duration)),
		})
	}

	return out, nil
}
