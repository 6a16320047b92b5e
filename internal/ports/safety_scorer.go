package ports

import (
	"context"
	"safe-route-service/internal/domain"
)

// Contract for assessing the safety of one route given nearby incidents.
type SafetyScorer interface {
	Score(ctx context.Context, route domain.RouteCandidate, incidents []domain.IncidentRecord) (domain.SafetyAssessment, error)
}

// Generative text backend used by model-based scorers.
type TextGenerator interface {
	// Return the model's text completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Optional store for previously computed assessments.
type AssessmentCache interface {
	Get(ctx context.Context, key string) (domain.SafetyAssessment, bool, error)
	Put(ctx context.Context, key string, a domain.SafetyAssessment) error
}
