package ports

import (
	"context"
	"safe-route-service/internal/domain"
)

// Port: a boundary for reading incident records.
// Backend outages are reported wrapped in domain.ErrStoreUnavailable.
type IncidentStore interface {
	// Return incidents located inside the corridor.
	IncidentsNear(ctx context.Context, corridor domain.Corridor) ([]domain.IncidentRecord, error)
	// Return incidents for ids in input order; unknown ids are omitted.
	IncidentsByIDs(ctx context.Context, ids []string) ([]domain.IncidentRecord, error)
}
