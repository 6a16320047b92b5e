package services

import (
	"context"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"testing"
	"time"
)

func pagingFixture(n int) ([]string, *fakeStore) {
	ids := make([]string, 0, n)
	incidents := make([]domain.IncidentRecord, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("i%d", i)
		ids = append(ids, id)
		incidents = append(incidents, domain.IncidentRecord{ID: id})
	}
	return ids, &fakeStore{incidents: incidents}
}

func TestIncidentPagerPages(t *testing.T) {
	ids, store := pagingFixture(25)
	p := NewIncidentPager(store)

	tests := []struct {
		offset    int
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{offset: 0, wantLen: 10, wantFirst: "i1", wantLast: "i10"},
		{offset: 20, wantLen: 5, wantFirst: "i21", wantLast: "i25"},
		{offset: 25, wantLen: 0},
		{offset: 40, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset=%d", tt.offset), func(t *testing.T) {
			got, err := p.Page(context.Background(), ids, tt.offset, 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && (got[0].ID != tt.wantFirst || got[len(got)-1].ID != tt.wantLast) {
				t.Fatalf("page = %s..%s, want %s..%s", got[0].ID, got[len(got)-1].ID, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestIncidentPagerTerminalPageSkipsStore(t *testing.T) {
	ids, store := pagingFixture(5)
	p := NewIncidentPager(store)

	if _, err := p.Page(context.Background(), ids, 5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Page(context.Background(), nil, 0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.byIDsCalls.Load() != 0 {
		t.Fatalf("store called %d times", store.byIDsCalls.Load())
	}
}

func TestIncidentPagerIsIdempotentAndKeepsDuplicates(t *testing.T) {
	_, store := pagingFixture(3)
	p := NewIncidentPager(store)
	ids := []string{"i1", "i2", "i2", "i3"}

	first, err := p.Page(context.Background(), ids, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Page(context.Background(), ids, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 2 || first[0].ID != "i2" || first[1].ID != "i2" {
		t.Fatalf("page = %+v", first)
	}
	if len(second) != len(first) || second[0].ID != first[0].ID || second[1].ID != first[1].ID {
		t.Fatalf("repeated page differs: %+v vs %+v", first, second)
	}
}

func TestIncidentPagerClampsPageSize(t *testing.T) {
	ids, store := pagingFixture(120)
	p := NewIncidentPager(store)

	got, err := p.Page(context.Background(), ids, 0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxIncidentPageSize || len(store.lastIDs) != MaxIncidentPageSize {
		t.Fatalf("len = %d, store asked for %d; want %d", len(got), len(store.lastIDs), MaxIncidentPageSize)
	}

	got, err = p.Page(context.Background(), ids, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != DefaultIncidentPageSize {
		t.Fatalf("default page len = %d", len(got))
	}
}

func TestIncidentPagerErrors(t *testing.T) {
	ids, store := pagingFixture(3)
	p := NewIncidentPager(store)

	if _, err := p.Page(context.Background(), ids, -1, 10); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("negative offset: got %v", err)
	}

	store.byIDsErr = domain.ErrStoreUnavailable
	_, err := p.Page(context.Background(), ids, 0, 10)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("store failure: got %v", err)
	}
}

type recordingSOSRepo struct {
	events []domain.SOSEvent
	err    error
}

func (r *recordingSOSRepo) SaveSOSEvent(ctx context.Context, ev domain.SOSEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func TestTriggerSOS(t *testing.T) {
	repo := &recordingSOSRepo{}
	fixed := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	ev, err := TriggerSOS(context.Background(), TriggerSOSRequest{
		UserID:   "u1",
		Location: domain.Coordinates{Lat: 12.97, Lon: 77.59},
	}, repo, func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.ID == "" || !ev.CreatedAt.Equal(fixed) {
		t.Fatalf("event = %+v", ev)
	}
	if len(repo.events) != 1 || repo.events[0].ID != ev.ID {
		t.Fatalf("stored = %+v", repo.events)
	}
}

func TestTriggerSOSValidation(t *testing.T) {
	repo := &recordingSOSRepo{}

	_, err := TriggerSOS(context.Background(), TriggerSOSRequest{Location: domain.Coordinates{Lat: 1, Lon: 1}}, repo, nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("missing user: got %v", err)
	}

	_, err = TriggerSOS(context.Background(), TriggerSOSRequest{UserID: "u1", Location: domain.Coordinates{Lat: 100}}, repo, nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("bad location: got %v", err)
	}

	repo.err = errors.New("db down")
	_, err = TriggerSOS(context.Background(), TriggerSOSRequest{UserID: "u1"}, repo, nil)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("repo failure: got %v", err)
	}
}
