package services

import "safe-route-service/internal/domain"

// SelectSafest returns the index of the safest result and how it was chosen,
// or -1 when no pipeline completed.
//
// Candidates are the fully scored results; when there are none, every
// completed (degraded) result competes instead. Incomplete results never do.
// Ordering: higher score, then fewer incidents, then shorter distance, then
// earlier position.
func SelectSafest(results []domain.RouteSafetyResult) (int, domain.SafestPolicy) {
	if best := pickBest(results, domain.RouteSafetyResult.Scored); best >= 0 {
		return best, domain.SafestScored
	}

	completed := func(r domain.RouteSafetyResult) bool { return !r.Incomplete }
	if best := pickBest(results, completed); best >= 0 {
		return best, domain.SafestFallback
	}

	return -1, domain.SafestNone
}

func pickBest(results []domain.RouteSafetyResult, eligible func(domain.RouteSafetyResult) bool) int {
	best := -1
	for i, r := range results {
		if !eligible(r) {
			continue
		}
		if best < 0 || safer(r, results[best]) {
			best = i
		}
	}
	return best
}

// safer reports whether a strictly outranks b.
func safer(a, b domain.RouteSafetyResult) bool {
	if a.SafetyScore != b.SafetyScore {
		return a.SafetyScore > b.SafetyScore
	}
	if a.IncidentCount != b.IncidentCount {
		return a.IncidentCount < b.IncidentCount
	}
	if a.DistanceMeters != b.DistanceMeters {
		return a.DistanceMeters < b.DistanceMeters
	}
	return a.Position < b.Position
}
