package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/httpx"
	"safe-route-service/internal/platform/obs"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	polyline "github.com/twpayne/go-polyline"
)

const googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// GoogleDirectionsProvider implements RouteProvider using the Google
// Directions API with alternatives enabled.
//
// The provider is safe for concurrent use.
type GoogleDirectionsProvider struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
	mode    string
	timeout time.Duration
}

func NewGoogleDirectionsProvider(apiKey string, timeout time.Duration) (*GoogleDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &GoogleDirectionsProvider{
		client:  httpx.New(timeout),
		apiKey:  apiKey,
		baseURL: googleDirectionsURL,
		mode:    "walking",
		timeout: timeout,
	}, nil
}

func (g *GoogleDirectionsProvider) FetchRoutes(
	ctx context.Context,
	origin string,
	destination string,
) (_ []domain.RouteCandidate, err error) {
	defer obs.Time(ctx, "google.FetchRoutes")(&err)

	origin = normalize(origin)
	destination = normalize(destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination must be non-empty", domain.ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("origin", origin)
		q.Set("destination", destination)
		q.Set("alternatives", "true")
		q.Set("mode", g.mode)
		q.Set("key", g.apiKey)
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: google directions: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode google directions response: %w", domain.ErrUpstreamUnavailable, err)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, fmt.Errorf("%w: google directions status %s", domain.ErrNoRouteFound, decoded.Status)
	default:
		return nil, fmt.Errorf("%w: google directions status %s: %s",
			domain.ErrUpstreamUnavailable, decoded.Status, decoded.ErrorMessage)
	}

	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("%w: google directions returned no routes", domain.ErrNoRouteFound)
	}

	out := make([]domain.RouteCandidate, 0, len(decoded.Routes))
	for i, r := range decoded.Routes {
		points, err := decodePolyline(r.OverviewPolyline.Points)
		if err != nil {
			return nil, fmt.Errorf("%w: route %d: %w", domain.ErrUpstreamUnavailable, i, err)
		}

		var meters, seconds int
		for _, leg := range r.Legs {
			meters += leg.Distance.Value
			seconds += leg.Duration.Value
		}

		out = append(out, domain.RouteCandidate{
			ID:              routeID(i),
			Label:           routeLabel(i, r.Summary),
			Summary:         strings.TrimSpace(r.Summary),
			Points:          points,
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		})
	}

	return out, nil
}

// Decode an encoded polyline into route points. An empty string is a route
// with no geometry.
func decodePolyline(encoded string) ([]domain.Coordinates, error) {
	if encoded == "" {
		return nil, nil
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	out := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		out = append(out, domain.Coordinates{Lat: c[0], Lon: c[1]})
	}
	return out, nil
}
