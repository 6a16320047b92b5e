package domain

import (
	"errors"
	"time"
)

// Score assigned to routes whose safety assessment could not be produced.
const DefaultSafetyScore = 50

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevelFor derives the risk level from a safety score (higher is safer).
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 40:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Validated output of a safety scorer for a single route.
// IncidentIDs, when non-empty, lists the incidents the scorer attributed
// to the route; it is always a subset of the incidents it was given.
type SafetyAssessment struct {
	Score        int
	RiskFactors  []string
	FriendlyTips []string
	Summary      string
	IncidentIDs  []string
}

// Why a result carries default values instead of a real assessment.
type DegradedReason string

const (
	DegradedNone        DegradedReason = ""
	DegradedTimeout     DegradedReason = "scoring_timeout"
	DegradedMalformed   DegradedReason = "scoring_malformed"
	DegradedUnavailable DegradedReason = "scoring_unavailable"
	DegradedFailed      DegradedReason = "scoring_failed"
)

// DegradedReasonFor classifies a scorer error.
func DegradedReasonFor(err error) DegradedReason {
	switch {
	case err == nil:
		return DegradedNone
	case errors.Is(err, ErrScoringTimeout):
		return DegradedTimeout
	case errors.Is(err, ErrScoringMalformed):
		return DegradedMalformed
	case errors.Is(err, ErrScoringUnavailable):
		return DegradedUnavailable
	default:
		return DegradedFailed
	}
}

// Safety outcome for one candidate route.
// A result is created once per analysis run and never mutated afterwards.
// Incomplete results occupy the slot of a route whose pipeline did not
// finish before the request deadline; they carry no score.
type RouteSafetyResult struct {
	Position        int
	RouteID         string
	Label           string
	Summary         string
	SafetyScore     int
	RiskLevel       RiskLevel
	RiskFactors     []string
	FriendlyTips    []string
	SafetySummary   string
	IncidentCount   int
	ZonesAnalyzed   int
	IncidentIDs     []string
	DistanceMeters  int
	DurationSeconds int
	Degraded        bool
	DegradedReason  DegradedReason
	Incomplete      bool
}

// Scored reports whether the result holds a real (non-default) assessment.
func (r RouteSafetyResult) Scored() bool {
	return !r.Incomplete && !r.Degraded
}

// How the safest route was chosen.
type SafestPolicy string

const (
	// At least one route was fully scored; the safest is the best of those.
	SafestScored SafestPolicy = "scored"
	// Every completed route was degraded; the pick falls back to the
	// tie-break over default scores and is not a real safety judgement.
	SafestFallback SafestPolicy = "fallback"
	// No route pipeline completed; no route is distinguished.
	SafestNone SafestPolicy = "none"
)

// Ordered safety results for one analysis request plus the safest pick.
// Routes has exactly one entry per candidate, in provider order.
type AggregatedResponse struct {
	Routes        []RouteSafetyResult
	SafestRouteID string
	SafestLabel   string
	SafestPolicy  SafestPolicy
	Provider      string
	GeneratedAt   time.Time
}
