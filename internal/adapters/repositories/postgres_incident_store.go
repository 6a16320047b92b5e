package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"strings"
)

const incidentColumns = `
	id, category, description, area, city, lat, lon,
	to_char(incident_date, 'YYYY-MM-DD'), time_from`

// Postgres-backed implementation of the IncidentStore port.
type PostgresIncidentStore struct {
	DB *sql.DB
	// Upper bound on incidents returned for one corridor, newest first.
	MaxResults int
}

func NewPostgresIncidentStore(db *sql.DB, maxResults int) *PostgresIncidentStore {
	if maxResults <= 0 {
		maxResults = 200
	}
	return &PostgresIncidentStore{DB: db, MaxResults: maxResults}
}

// Return incidents inside any zone of the corridor.
func (s *PostgresIncidentStore) IncidentsNear(
	ctx context.Context,
	corridor domain.Corridor,
) (_ []domain.IncidentRecord, err error) {
	defer obs.Time(ctx, "incidents.pg.IncidentsNear")(&err)

	if s.DB == nil {
		return nil, fmt.Errorf("%w: db is nil", domain.ErrStoreUnavailable)
	}

	if len(corridor.Zones) == 0 {
		return []domain.IncidentRecord{}, nil
	}

	minLat := make([]float64, 0, len(corridor.Zones))
	maxLat := make([]float64, 0, len(corridor.Zones))
	minLon := make([]float64, 0, len(corridor.Zones))
	maxLon := make([]float64, 0, len(corridor.Zones))
	for _, z := range corridor.Zones {
		minLat = append(minLat, z.MinLat)
		maxLat = append(maxLat, z.MaxLat)
		minLon = append(minLon, z.MinLon)
		maxLon = append(maxLon, z.MaxLon)
	}

	q := `
	SELECT` + incidentColumns + `
    FROM incidents i
    WHERE EXISTS (
        SELECT 1
        FROM unnest($1::float8[], $2::float8[], $3::float8[], $4::float8[])
            AS z(min_lat, max_lat, min_lon, max_lon)
        WHERE i.lat BETWEEN z.min_lat AND z.max_lat
            AND i.lon BETWEEN z.min_lon AND z.max_lon
    )
    ORDER BY i.incident_date DESC, i.id
    LIMIT $5;
	`

	rows, err := s.DB.QueryContext(ctx, q, minLat, maxLat, minLon, maxLon, s.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: incidents near: query incidents table: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out, err := scanIncidents(rows, s.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: incidents near: %w", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}

// Return incidents for ids, preserving input order and omitting unknown ids.
func (s *PostgresIncidentStore) IncidentsByIDs(
	ctx context.Context,
	ids []string,
) (_ []domain.IncidentRecord, err error) {
	if len(ids) == 0 {
		return []domain.IncidentRecord{}, nil
	}

	defer obs.Time(ctx, "incidents.pg.IncidentsByIDs")(&err)

	if s.DB == nil {
		return nil, fmt.Errorf("%w: db is nil", domain.ErrStoreUnavailable)
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	if len(uniq) == 0 {
		return []domain.IncidentRecord{}, nil
	}

	q := `
	SELECT` + incidentColumns + `
    FROM incidents
    WHERE id = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("%w: incidents by ids: query incidents table: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	found, err := scanIncidents(rows, len(uniq))
	if err != nil {
		return nil, fmt.Errorf("%w: incidents by ids: %w", domain.ErrStoreUnavailable, err)
	}

	return orderByIDs(ids, found), nil
}

func scanIncidents(rows *sql.Rows, sizeHint int) ([]domain.IncidentRecord, error) {
	out := make([]domain.IncidentRecord, 0, sizeHint)
	for rows.Next() {
		var r domain.IncidentRecord
		if err := rows.Scan(
			&r.ID, &r.Category, &r.Description, &r.Area, &r.City,
			&r.Location.Lat, &r.Location.Lon, &r.Date, &r.TimeFrom,
		); err != nil {
			return nil, fmt.Errorf("scan rows: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}

// orderByIDs lays records out in the order of ids. Unknown ids are skipped;
// repeated ids repeat their record.
func orderByIDs(ids []string, records []domain.IncidentRecord) []domain.IncidentRecord {
	byID := make(map[string]domain.IncidentRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	out := make([]domain.IncidentRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[strings.TrimSpace(id)]; ok {
			out = append(out, r)
		}
	}
	return out
}
