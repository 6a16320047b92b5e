package repositories

import (
	"context"
	"safe-route-service/internal/domain"
	"slices"
	"strings"
)

// In-memory IncidentStore used when no database is configured.
// Records are fixed at construction; the store is safe for concurrent reads.
type MemoryIncidentStore struct {
	records    []domain.IncidentRecord
	maxResults int
}

func NewMemoryIncidentStore(records []domain.IncidentRecord, maxResults int) *MemoryIncidentStore {
	if maxResults <= 0 {
		maxResults = 200
	}

	sorted := slices.Clone(records)
	// Same ordering as the Postgres store: newest first, then id.
	slices.SortStableFunc(sorted, func(a, b domain.IncidentRecord) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return &MemoryIncidentStore{records: sorted, maxResults: maxResults}
}

// Build a store from a JSON seed file.
func NewMemoryIncidentStoreFromJSON(jsonPath string, maxResults int) (*MemoryIncidentStore, error) {
	records, err := LoadIncidentSeeds(jsonPath)
	if err != nil {
		return nil, err
	}
	return NewMemoryIncidentStore(records, maxResults), nil
}

func (s *MemoryIncidentStore) IncidentsNear(ctx context.Context, corridor domain.Corridor) ([]domain.IncidentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.IncidentRecord, 0)
	for _, r := range s.records {
		if len(out) >= s.maxResults {
			break
		}
		if corridor.Contains(r.Location) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryIncidentStore) IncidentsByIDs(ctx context.Context, ids []string) ([]domain.IncidentRecord, error) {
	if len(ids) == 0 {
		return []domain.IncidentRecord{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return orderByIDs(ids, s.records), nil
}
