package services

import (
	"context"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/ports"
)

const (
	DefaultIncidentPageSize = 10
	MaxIncidentPageSize     = 50
)

// IncidentPager serves incident detail for a route's id list one page at a
// time. It is stateless; callers carry the offset between requests.
type IncidentPager struct {
	store ports.IncidentStore
}

func NewIncidentPager(store ports.IncidentStore) *IncidentPager {
	return &IncidentPager{store: store}
}

// PageSize returns the size actually served for a requested size.
func (p *IncidentPager) PageSize(requested int) int {
	switch {
	case requested <= 0:
		return DefaultIncidentPageSize
	case requested > MaxIncidentPageSize:
		return MaxIncidentPageSize
	default:
		return requested
	}
}

// Page returns the records for ids[offset:offset+pageSize], in id order.
// An offset at or past the end yields an empty page without touching the
// store; that is the terminal "no more pages" signal.
func (p *IncidentPager) Page(
	ctx context.Context,
	ids []string,
	offset int,
	pageSize int,
) ([]domain.IncidentRecord, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must be >= 0", domain.ErrInvalidRequest)
	}
	if offset >= len(ids) {
		return []domain.IncidentRecord{}, nil
	}

	end := min(offset+p.PageSize(pageSize), len(ids))

	records, err := p.store.IncidentsByIDs(ctx, ids[offset:end])
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, fmt.Errorf("incident page: %w", err)
		}
		return nil, fmt.Errorf("incident page: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return records, nil
}
