package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/metrics"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"slices"
	"strings"
)

// CachedScorer serves repeat assessments from an AssessmentCache.
// Only successful assessments are stored; errors always reach the caller.
// Cache faults are logged and bypassed.
type CachedScorer struct {
	next  ports.SafetyScorer
	cache ports.AssessmentCache
}

var _ ports.SafetyScorer = (*CachedScorer)(nil)

func NewCachedScorer(next ports.SafetyScorer, cache ports.AssessmentCache) *CachedScorer {
	return &CachedScorer{next: next, cache: cache}
}

func (c *CachedScorer) Score(
	ctx context.Context,
	route domain.RouteCandidate,
	incidents []domain.IncidentRecord,
) (domain.SafetyAssessment, error) {
	key := AssessmentKey(route, incidents)
	log := obs.Ctx(ctx)

	a, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.AssessmentCacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("route_id", route.ID).Msg("assessment cache read failed")
	case ok:
		metrics.AssessmentCacheLookups.WithLabelValues("hit").Inc()
		return a, nil
	default:
		metrics.AssessmentCacheLookups.WithLabelValues("miss").Inc()
	}

	a, err = c.next.Score(ctx, route, incidents)
	if err != nil {
		return domain.SafetyAssessment{}, err
	}

	if err := c.cache.Put(ctx, key, a); err != nil {
		log.Warn().Err(err).Str("route_id", route.ID).Msg("assessment cache write failed")
	}
	return a, nil
}

// AssessmentKey identifies an assessment by the route's shape and the set
// of incidents it was scored against.
func AssessmentKey(route domain.RouteCandidate, incidents []domain.IncidentRecord) string {
	ids := domain.IncidentIDs(incidents)
	slices.Sort(ids)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00", route.ID, route.Summary, len(route.Points), route.DistanceMeters)
	if n := len(route.Points); n > 0 {
		first, last := route.Points[0], route.Points[n-1]
		fmt.Fprintf(h, "%.5f,%.5f\x00%.5f,%.5f\x00", first.Lat, first.Lon, last.Lat, last.Lon)
	}
	h.Write([]byte(strings.Join(ids, ",")))

	return hex.EncodeToString(h.Sum(nil))
}
