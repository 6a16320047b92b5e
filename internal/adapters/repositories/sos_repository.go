package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"sync"
)

// Postgres-backed implementation of the SOSRepository port.
type PostgresSOSRepository struct{ DB *sql.DB }

func NewPostgresSOSRepository(db *sql.DB) *PostgresSOSRepository {
	return &PostgresSOSRepository{DB: db}
}

func (s *PostgresSOSRepository) SaveSOSEvent(ctx context.Context, ev domain.SOSEvent) (err error) {
	defer obs.Time(ctx, "sos.pg.Save")(&err)

	if s.DB == nil {
		return errors.New("sos repository: DB is nil")
	}

	q := `
	INSERT INTO sos_events (id, user_id, lat, lon, message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := s.DB.ExecContext(ctx, q,
		ev.ID, ev.UserID, ev.Location.Lat, ev.Location.Lon, ev.Message, ev.CreatedAt,
	); err != nil {
		return fmt.Errorf("save sos event id=%q: %w", ev.ID, err)
	}
	return nil
}

// In-memory SOSRepository used when no database is configured.
type MemorySOSRepository struct {
	mu     sync.Mutex
	events []domain.SOSEvent
}

func NewMemorySOSRepository() *MemorySOSRepository {
	return &MemorySOSRepository{}
}

func (s *MemorySOSRepository) SaveSOSEvent(ctx context.Context, ev domain.SOSEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the stored events in insertion order.
func (s *MemorySOSRepository) Events() []domain.SOSEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SOSEvent, len(s.events))
	copy(out, s.events)
	return out
}
