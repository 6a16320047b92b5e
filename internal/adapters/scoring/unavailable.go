package scoring

import (
	"context"
	"safe-route-service/internal/domain"
)

// UnavailableGenerator stands in when no model backend is configured.
// Every call fails with ErrScoringUnavailable so routes come back degraded.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", domain.ErrScoringUnavailable
}
