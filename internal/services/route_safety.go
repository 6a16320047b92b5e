package services

import (
	"context"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/metrics"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"time"

	"golang.org/x/sync/semaphore"
)

type AnalyzerOptions struct {
	// Simultaneous scorer calls across all route pipelines of one request.
	MaxConcurrentScoring int
	// Outer deadline for one analysis, route fetch included.
	RequestTimeout       time.Duration
	CorridorBufferMeters float64
	CorridorMaxZones     int
	// Reported on responses as the route source.
	ProviderName string
	Now          func() time.Time
}

func (o AnalyzerOptions) withDefaults() AnalyzerOptions {
	if o.MaxConcurrentScoring <= 0 {
		o.MaxConcurrentScoring = 3
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 20 * time.Second
	}
	if o.CorridorBufferMeters <= 0 {
		o.CorridorBufferMeters = 250
	}
	if o.CorridorMaxZones <= 0 {
		o.CorridorMaxZones = 8
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// RouteSafetyAnalyzer fetches candidate routes and scores each one
// concurrently against the incidents along its corridor.
// It holds no per-request state and is safe for concurrent use.
type RouteSafetyAnalyzer struct {
	provider ports.RouteProvider
	store    ports.IncidentStore
	scorer   ports.SafetyScorer
	opts     AnalyzerOptions
}

func NewRouteSafetyAnalyzer(
	provider ports.RouteProvider,
	store ports.IncidentStore,
	scorer ports.SafetyScorer,
	opts AnalyzerOptions,
) *RouteSafetyAnalyzer {
	return &RouteSafetyAnalyzer{
		provider: provider,
		store:    store,
		scorer:   scorer,
		opts:     opts.withDefaults(),
	}
}

type slotResult struct {
	index  int
	result domain.RouteSafetyResult
}

// Analyze returns one result per candidate route, in provider order.
// Route fetch failures abort the request; failures inside one route's
// pipeline degrade that route only. Pipelines still running at the
// deadline leave their slot marked incomplete.
func (a *RouteSafetyAnalyzer) Analyze(
	ctx context.Context,
	origin string,
	destination string,
) (_ *domain.AggregatedResponse, err error) {
	defer obs.Time(ctx, "analyzer.Analyze")(&err)

	ctx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	defer cancel()

	routes, err := a.fetchRoutes(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(a.opts.MaxConcurrentScoring))

	// Buffered to len(routes) so pipelines finishing after the deadline
	// never block; their results are simply not read.
	resultsCh := make(chan slotResult, len(routes))
	for i, route := range routes {
		go func(i int, route domain.RouteCandidate) {
			resultsCh <- slotResult{index: i, result: a.runPipeline(ctx, sem, i, route)}
		}(i, route)
	}

	slots := make([]domain.RouteSafetyResult, len(routes))
	filled := make([]bool, len(routes))
	remaining := len(routes)

collect:
	for remaining > 0 {
		select {
		case sr := <-resultsCh:
			slots[sr.index] = sr.result
			filled[sr.index] = true
			remaining--
		case <-ctx.Done():
			break collect
		}
	}

	// Take anything that landed alongside the deadline.
	for drained := false; remaining > 0 && !drained; {
		select {
		case sr := <-resultsCh:
			slots[sr.index] = sr.result
			filled[sr.index] = true
			remaining--
		default:
			drained = true
		}
	}

	for i, ok := range filled {
		if !ok {
			slots[i] = incompleteResult(i, routes[i])
		}
	}
	if remaining > 0 {
		metrics.PipelinesIncomplete.Add(float64(remaining))
		obs.Ctx(ctx).Warn().
			Int("incomplete", remaining).
			Int("routes", len(routes)).
			Msg("request deadline elapsed before all route pipelines finished")
	}

	safest, policy := SelectSafest(slots)
	resp := &domain.AggregatedResponse{
		Routes:       slots,
		SafestPolicy: policy,
		Provider:     a.opts.ProviderName,
		GeneratedAt:  a.opts.Now().UTC(),
	}
	if safest >= 0 {
		resp.SafestRouteID = slots[safest].RouteID
		resp.SafestLabel = slots[safest].Label
	}

	obs.Ctx(ctx).Info().
		Int("routes", len(slots)).
		Str("safest_route_id", resp.SafestRouteID).
		Str("safest_policy", string(policy)).
		Msg("route safety analyzed")

	return resp, nil
}

func (a *RouteSafetyAnalyzer) fetchRoutes(ctx context.Context, origin, destination string) ([]domain.RouteCandidate, error) {
	start := time.Now()
	routes, err := a.provider.FetchRoutes(ctx, origin, destination)

	outcome := "ok"
	switch {
	case err == nil && len(routes) == 0:
		err = domain.ErrNoRouteFound
		outcome = "no_route"
	case errors.Is(err, domain.ErrNoRouteFound):
		outcome = "no_route"
	case err != nil:
		outcome = "error"
	}
	metrics.RouteFetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		return routes, nil
	case errors.Is(err, domain.ErrNoRouteFound),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUpstreamUnavailable):
		return nil, fmt.Errorf("fetch routes: %w", err)
	default:
		return nil, fmt.Errorf("fetch routes: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
}

// runPipeline looks up incidents along one route and scores it.
// It always returns a result; failures produce a degraded one.
func (a *RouteSafetyAnalyzer) runPipeline(
	ctx context.Context,
	sem *semaphore.Weighted,
	position int,
	route domain.RouteCandidate,
) domain.RouteSafetyResult {
	log := obs.Ctx(ctx).With().Str("route_id", route.ID).Int("position", position).Logger()

	corridor := domain.NewCorridor(route.Points, a.opts.CorridorBufferMeters, a.opts.CorridorMaxZones)

	var incidents []domain.IncidentRecord
	if len(corridor.Zones) > 0 {
		found, err := a.store.IncidentsNear(ctx, corridor)
		if err != nil {
			metrics.IncidentLookupFailures.Inc()
			log.Warn().Err(err).Msg("incident lookup failed; scoring with no incidents")
		} else {
			incidents = found
		}
	}

	res := domain.RouteSafetyResult{
		Position:        position,
		RouteID:         route.ID,
		Label:           route.Label,
		Summary:         route.Summary,
		IncidentCount:   len(incidents),
		ZonesAnalyzed:   len(corridor.Zones),
		IncidentIDs:     domain.IncidentIDs(incidents),
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	}

	assessment, err := a.score(ctx, sem, route, incidents)
	if err != nil {
		reason := domain.DegradedReasonFor(err)
		metrics.ScoringOutcomes.WithLabelValues(string(reason)).Inc()
		log.Warn().Err(err).Str("reason", string(reason)).Msg("route scoring degraded")

		res.SafetyScore = domain.DefaultSafetyScore
		res.RiskLevel = domain.RiskLevelFor(domain.DefaultSafetyScore)
		res.RiskFactors = []string{}
		res.FriendlyTips = []string{}
		res.Degraded = true
		res.DegradedReason = reason
		return res
	}

	metrics.ScoringOutcomes.WithLabelValues("scored").Inc()

	res.SafetyScore = assessment.Score
	res.RiskLevel = domain.RiskLevelFor(assessment.Score)
	res.RiskFactors = assessment.RiskFactors
	res.FriendlyTips = assessment.FriendlyTips
	res.SafetySummary = assessment.Summary
	res.IncidentIDs = assessment.IncidentIDs
	if res.RiskFactors == nil {
		res.RiskFactors = []string{}
	}
	if res.FriendlyTips == nil {
		res.FriendlyTips = []string{}
	}
	if res.IncidentIDs == nil {
		res.IncidentIDs = []string{}
	}
	return res
}

func (a *RouteSafetyAnalyzer) score(
	ctx context.Context,
	sem *semaphore.Weighted,
	route domain.RouteCandidate,
	incidents []domain.IncidentRecord,
) (domain.SafetyAssessment, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return domain.SafetyAssessment{}, fmt.Errorf("%w: waiting for scorer slot: %w", domain.ErrScoringTimeout, err)
	}
	defer sem.Release(1)

	return a.scorer.Score(ctx, route, incidents)
}

func incompleteResult(position int, route domain.RouteCandidate) domain.RouteSafetyResult {
	return domain.RouteSafetyResult{
		Position:        position,
		RouteID:         route.ID,
		Label:           route.Label,
		Summary:         route.Summary,
		RiskFactors:     []string{},
		FriendlyTips:    []string{},
		IncidentIDs:     []string{},
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Incomplete:      true,
	}
}
