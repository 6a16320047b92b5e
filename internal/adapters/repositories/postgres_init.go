package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createIncidentsQuery := `
	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		incident_date DATE NOT NULL,
		time_from TEXT NOT NULL DEFAULT ''
	);
	`

	createIncidentsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_incidents_lat_lon
    ON incidents(lat, lon);
	`

	createSOSEventsQuery := `
	CREATE TABLE IF NOT EXISTS sos_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL
    );
	`

	statements := []string{
		createIncidentsQuery,
		createIncidentsIndexQuery,
		createSOSEventsQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the incidents table from a JSON seed file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	rows, err := LoadIncidentSeeds(jsonPath)
	if err != nil {
		return fmt.Errorf("seed incidents: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed incidents: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO incidents (
		id, category, description, area, city, lat, lon, incident_date, time_from
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET category = EXCLUDED.category,
		description = EXCLUDED.description,
		area = EXCLUDED.area,
		city = EXCLUDED.city,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		incident_date = EXCLUDED.incident_date,
		time_from = EXCLUDED.time_from;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed incidents: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Category, r.Description, r.Area, r.City,
			r.Location.Lat, r.Location.Lon, r.Date, strings.TrimSpace(r.TimeFrom),
		); err != nil {
			return fmt.Errorf("seed incidents: insert id=%q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed incidents: commit tx: %w", err)
	}

	return nil
}
