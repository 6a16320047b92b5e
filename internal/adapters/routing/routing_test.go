package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/httpx"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *GoogleDirectionsProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGoogleDirectionsProvider("test-key", 2*time.Second)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	g.baseURL = srv.URL
	g.client.Backoff = time.Millisecond
	return g
}

func TestGoogleFetchRoutesDecodesAlternatives(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alternatives") != "true" {
			t.Errorf("alternatives not requested")
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not sent")
		}
		w.Header().Set("Content-Type", "application/json")
		// "_p~iF~ps|U_ulLnnqC_mqNvxq`@" is the reference polyline from the format docs.
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"routes": [
				{"summary": "MG Road", "overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC_mqNvxq`+"`"+`@"},
				 "legs": [{"distance": {"value": 1200}, "duration": {"value": 900}}]},
				{"summary": "", "overview_polyline": {"points": ""},
				 "legs": [{"distance": {"value": 1500}, "duration": {"value": 1100}},
				          {"distance": {"value": 100}, "duration": {"value": 60}}]}
			]
		}`)
	})

	routes, err := g.FetchRoutes(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].ID != "route-1" || routes[0].Label != "via MG Road" {
		t.Errorf("route 0 = %q %q", routes[0].ID, routes[0].Label)
	}
	if len(routes[0].Points) != 3 {
		t.Fatalf("expected 3 decoded points, got %d", len(routes[0].Points))
	}
	if p := routes[0].Points[0]; p.Lat != 38.5 || p.Lon != -120.2 {
		t.Errorf("first point = %+v, want lat 38.5 lon -120.2", p)
	}
	if routes[1].Label != "Route 2" || routes[1].DistanceMeters != 1600 || routes[1].DurationSeconds != 1160 {
		t.Errorf("route 1 = %+v", routes[1])
	}
	if len(routes[1].Points) != 0 {
		t.Errorf("expected no geometry for empty polyline")
	}
}

func TestGoogleZeroResultsIsNoRouteFound(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "routes": []}`)
	})

	_, err := g.FetchRoutes(context.Background(), "A", "B")
	if !errors.Is(err, domain.ErrNoRouteFound) {
		t.Fatalf("expected ErrNoRouteFound, got %v", err)
	}
}

func TestGoogleDeniedIsUpstreamUnavailable(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`)
	})

	_, err := g.FetchRoutes(context.Background(), "A", "B")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestGoogleRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status": "OK", "routes": [{"summary": "x", "overview_polyline": {"points": ""}, "legs": []}]}`)
	})

	routes, err := g.FetchRoutes(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || calls.Load() != 2 {
		t.Fatalf("routes=%d calls=%d", len(routes), calls.Load())
	}
}

func TestGoogleTimeoutIsUpstreamUnavailable(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	g.timeout = 50 * time.Millisecond

	_, err := g.FetchRoutes(context.Background(), "A", "B")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("error exposes the API key: %v", err)
	}
}

type fakeGeocodeCache struct {
	m      map[string]domain.Coordinates
	stores int
}

func (f *fakeGeocodeCache) Lookup(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	c, ok := f.m[address]
	return c, ok, nil
}

func (f *fakeGeocodeCache) Store(ctx context.Context, address string, c domain.Coordinates) error {
	f.m[address] = c
	f.stores++
	return nil
}

func TestORSFetchRoutesGeocodesAndCaches(t *testing.T) {
	var geocodeCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/search", func(w http.ResponseWriter, r *http.Request) {
		geocodeCalls.Add(1)
		_, _ = io.WriteString(w, `{"features": [{"geometry": {"coordinates": [77.61, 12.97]}}]}`)
	})
	mux.HandleFunc("/v2/directions/foot-walking/geojson", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ors-key" {
			t.Errorf("missing api key header")
		}
		_, _ = io.WriteString(w, `{"features": [
			{"geometry": {"coordinates": [[77.59, 12.97], [77.61, 12.97]]},
			 "properties": {"summary": {"distance": 2010.6, "duration": 1500.2}}}
		]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gc := &fakeGeocodeCache{m: map[string]domain.Coordinates{}}
	o, err := NewORSDirectionsProvider("ors-key", "", time.Second, gc)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	o.baseURL = srv.URL

	for i := 0; i < 2; i++ {
		routes, err := o.FetchRoutes(context.Background(), "12.97,77.59", "Cubbon  Park")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(routes) != 1 || routes[0].DistanceMeters != 2011 || routes[0].DurationSeconds != 1500 {
			t.Fatalf("routes = %+v", routes)
		}
		if len(routes[0].Points) != 2 || routes[0].Points[0].Lat != 12.97 {
			t.Fatalf("points = %+v", routes[0].Points)
		}
	}

	if geocodeCalls.Load() != 1 {
		t.Errorf("expected 1 geocode call, got %d", geocodeCalls.Load())
	}
	if _, ok := gc.m["Cubbon Park"]; !ok {
		t.Errorf("expected normalized address to be cached")
	}
}

func TestORSNotFoundIsNoRouteFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": {"code": 2009, "message": "Route could not be found"}}`)
	}))
	t.Cleanup(srv.Close)

	o, err := NewORSDirectionsProvider("ors-key", "", time.Second, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	o.baseURL = srv.URL

	_, err = o.FetchRoutes(context.Background(), "12.97,77.59", "12.98,77.60")
	if !errors.Is(err, domain.ErrNoRouteFound) {
		t.Fatalf("expected ErrNoRouteFound, got %v", err)
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider([]StaticPair{{From: "a", To: "b", Routes: DemoRoutes()}})

	routes, err := p.FetchRoutes(context.Background(), " a ", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}

	if _, err := p.FetchRoutes(context.Background(), "a", "c"); !errors.Is(err, domain.ErrNoRouteFound) {
		t.Fatalf("expected ErrNoRouteFound, got %v", err)
	}
}

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) FetchRoutes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return DemoRoutes(), nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingProvider{err: &httpx.StatusError{Code: 503}}
	b := NewBreakerProvider(inner, BreakerConfig{Name: "test-open", MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, _ = b.FetchRoutes(context.Background(), "a", "b")
	}

	_, err := b.FetchRoutes(context.Background(), "a", "b")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit should not call upstream; calls=%d", inner.calls)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
}

func TestBreakerIgnoresNoRouteFound(t *testing.T) {
	inner := &countingProvider{err: domain.ErrNoRouteFound}
	b := NewBreakerProvider(inner, BreakerConfig{Name: "test-noroute", MaxFailures: 1})

	for i := 0; i < 3; i++ {
		if _, err := b.FetchRoutes(context.Background(), "a", "b"); !errors.Is(err, domain.ErrNoRouteFound) {
			t.Fatalf("expected ErrNoRouteFound, got %v", err)
		}
	}
	if inner.calls != 3 || b.State() != gobreaker.StateClosed {
		t.Fatalf("calls=%d state=%v", inner.calls, b.State())
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	inner := &countingProvider{err: fmt.Errorf("google directions: %w", context.Canceled)}
	b := NewBreakerProvider(inner, BreakerConfig{Name: "test-cancel", MaxFailures: 1})

	for i := 0; i < 3; i++ {
		if _, err := b.FetchRoutes(context.Background(), "a", "b"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	}
	if inner.calls != 3 || b.State() != gobreaker.StateClosed {
		t.Fatalf("calls=%d state=%v", inner.calls, b.State())
	}
}

func TestBreakerIgnoresExpiredCallerDeadline(t *testing.T) {
	inner := &countingProvider{err: &httpx.StatusError{Code: 503}}
	b := NewBreakerProvider(inner, BreakerConfig{Name: "test-expired", MaxFailures: 1})

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		_, err := b.FetchRoutes(ctx, "a", "b")
		var se *httpx.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected the provider error back, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("state = %v, want closed", b.State())
	}

	// The same failure with a live caller does count.
	_, _ = b.FetchRoutes(context.Background(), "a", "b")
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
}
