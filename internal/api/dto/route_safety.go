package dto

import (
	"safe-route-service/internal/domain"
	"time"
)

type RouteSafetyQuery struct {
	From string `json:"from" validate:"required,max=256"`
	To   string `json:"to" validate:"required,max=256"`
}

type RouteSafetyResultResponse struct {
	RouteID      string `json:"route_id"`
	RouteName    string `json:"route_name"`
	RouteSummary string `json:"route_summary,omitempty"`
	Position     int    `json:"position"`
	// Null for incomplete routes.
	SafetyScore     *int     `json:"safety_score"`
	RiskLevel       string   `json:"risk_level,omitempty"`
	RiskFactors     []string `json:"risk_factors"`
	FriendlyTips    []string `json:"friendly_tips"`
	Summary         string   `json:"summary,omitempty"`
	IncidentCount   int      `json:"incident_count"`
	BoundsAnalyzed  int      `json:"bounds_analyzed"`
	IncidentIDs     []string `json:"incident_ids"`
	DistanceMeters  int      `json:"distance_meters"`
	DurationSeconds int      `json:"duration_seconds"`
	Degraded        bool     `json:"degraded"`
	DegradedReason  string   `json:"degraded_reason,omitempty"`
	Incomplete      bool     `json:"incomplete"`
}

type MetaResponse struct {
	Count       int       `json:"count"`
	Provider    string    `json:"provider"`
	GeneratedAt time.Time `json:"generated_at"`
}

type RouteSafetyResponse struct {
	Routes []RouteSafetyResultResponse `json:"routes"`
	// Label of the safest route; empty when no route completed.
	SafestRoute   string       `json:"safest_route"`
	SafestRouteID string       `json:"safest_route_id"`
	SafestPolicy  string       `json:"safest_policy"`
	Meta          MetaResponse `json:"meta"`
}

func NewRouteSafetyResponse(resp *domain.AggregatedResponse) RouteSafetyResponse {
	out := RouteSafetyResponse{
		Routes:        make([]RouteSafetyResultResponse, 0, len(resp.Routes)),
		SafestRoute:   resp.SafestLabel,
		SafestRouteID: resp.SafestRouteID,
		SafestPolicy:  string(resp.SafestPolicy),
		Meta: MetaResponse{
			Count:       len(resp.Routes),
			Provider:    resp.Provider,
			GeneratedAt: resp.GeneratedAt,
		},
	}

	for _, r := range resp.Routes {
		item := RouteSafetyResultResponse{
			RouteID:         r.RouteID,
			RouteName:       r.Label,
			RouteSummary:    r.Summary,
			Position:        r.Position,
			RiskFactors:     nonNil(r.RiskFactors),
			FriendlyTips:    nonNil(r.FriendlyTips),
			Summary:         r.SafetySummary,
			IncidentCount:   r.IncidentCount,
			BoundsAnalyzed:  r.ZonesAnalyzed,
			IncidentIDs:     nonNil(r.IncidentIDs),
			DistanceMeters:  r.DistanceMeters,
			DurationSeconds: r.DurationSeconds,
			Degraded:        r.Degraded,
			DegradedReason:  string(r.DegradedReason),
			Incomplete:      r.Incomplete,
		}
		if !r.Incomplete {
			score := r.SafetyScore
			item.SafetyScore = &score
			item.RiskLevel = string(r.RiskLevel)
		}
		out.Routes = append(out.Routes, item)
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
