package services

import (
	"context"
	"fmt"
	"safe-route-service/internal/domain"
	"sync"
	"sync/atomic"
	"time"
)

type fakeProvider struct {
	routes []domain.RouteCandidate
	err    error
	calls  atomic.Int32
}

func (f *fakeProvider) FetchRoutes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.routes, nil
}

// fakeStore filters its incidents by corridor like a real store would.
type fakeStore struct {
	incidents []domain.IncidentRecord
	nearErr   error
	byIDsErr  error

	nearCalls  atomic.Int32
	byIDsCalls atomic.Int32
	lastIDs    []string
	mu         sync.Mutex
}

func (f *fakeStore) IncidentsNear(ctx context.Context, corridor domain.Corridor) ([]domain.IncidentRecord, error) {
	f.nearCalls.Add(1)
	if f.nearErr != nil {
		return nil, f.nearErr
	}
	out := make([]domain.IncidentRecord, 0)
	for _, inc := range f.incidents {
		if corridor.Contains(inc.Location) {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (f *fakeStore) IncidentsByIDs(ctx context.Context, ids []string) ([]domain.IncidentRecord, error) {
	f.byIDsCalls.Add(1)
	f.mu.Lock()
	f.lastIDs = append([]string(nil), ids...)
	f.mu.Unlock()
	if f.byIDsErr != nil {
		return nil, f.byIDsErr
	}

	byID := make(map[string]domain.IncidentRecord, len(f.incidents))
	for _, inc := range f.incidents {
		byID[inc.ID] = inc
	}
	out := make([]domain.IncidentRecord, 0, len(ids))
	for _, id := range ids {
		if inc, ok := byID[id]; ok {
			out = append(out, inc)
		}
	}
	return out, nil
}

type scoreStub struct {
	score int
	err   error
	// When non-nil the call blocks until the channel is closed, ignoring ctx.
	block chan struct{}
	delay time.Duration
}

type fakeScorer struct {
	byRoute map[string]scoreStub

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu        sync.Mutex
	incidents map[string]int
}

func (f *fakeScorer) Score(ctx context.Context, route domain.RouteCandidate, incidents []domain.IncidentRecord) (domain.SafetyAssessment, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	if f.incidents == nil {
		f.incidents = map[string]int{}
	}
	f.incidents[route.ID] = len(incidents)
	f.mu.Unlock()

	stub, ok := f.byRoute[route.ID]
	if !ok {
		return domain.SafetyAssessment{}, fmt.Errorf("no stub for %s", route.ID)
	}
	if stub.block != nil {
		<-stub.block
	}
	if stub.delay > 0 {
		time.Sleep(stub.delay)
	}
	if stub.err != nil {
		return domain.SafetyAssessment{}, stub.err
	}
	return domain.SafetyAssessment{
		Score:       stub.score,
		RiskFactors: []string{"stub"},
		IncidentIDs: domain.IncidentIDs(incidents),
	}, nil
}

func (f *fakeScorer) incidentsSeen(routeID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incidents[routeID]
}

type memoryCache struct {
	mu     sync.Mutex
	m      map[string]domain.SafetyAssessment
	getErr error
	puts   int
}

func (c *memoryCache) Get(ctx context.Context, key string) (domain.SafetyAssessment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return domain.SafetyAssessment{}, false, c.getErr
	}
	a, ok := c.m[key]
	return a, ok, nil
}

func (c *memoryCache) Put(ctx context.Context, key string, a domain.SafetyAssessment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]domain.SafetyAssessment{}
	}
	c.m[key] = a
	c.puts++
	return nil
}

// testRoute builds a short east-west route starting at (lat, lon).
func testRoute(id string, lat, lon float64, meters int) domain.RouteCandidate {
	return domain.RouteCandidate{
		ID:    id,
		Label: "Route " + id,
		Points: []domain.Coordinates{
			{Lat: lat, Lon: lon},
			{Lat: lat, Lon: lon + 0.005},
			{Lat: lat, Lon: lon + 0.01},
		},
		DistanceMeters:  meters,
		DurationSeconds: meters,
	}
}

// incidentsOn places n incidents on the route starting at (lat, lon).
func incidentsOn(prefix string, lat, lon float64, n int) []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.IncidentRecord{
			ID:       fmt.Sprintf("%s-%d", prefix, i+1),
			Category: "Theft",
			Location: domain.Coordinates{Lat: lat, Lon: lon + 0.001*float64(i)},
			Date:     "2025-01-01",
		})
	}
	return out
}
