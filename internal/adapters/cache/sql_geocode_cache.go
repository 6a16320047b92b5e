package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"strings"
)

// SQLGeocodeCache persists resolved place names so repeat lookups
// skip the upstream geocoder. Keys are normalized addresses.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Lookup returns the cached location for address, if any.
func (s *SQLGeocodeCache) Lookup(ctx context.Context, address string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Lookup")(&err)

	if s.DB == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Coordinates{}, false, nil
	}

	var c domain.Coordinates
	err = s.DB.QueryRowContext(ctx,
		`SELECT lon, lat FROM geocode_cache WHERE address = $1;`,
		address,
	).Scan(&c.Lon, &c.Lat)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("lookup geocode cache %q: %w", address, err)
	}
	return c, true, nil
}

// Store records address -> location, replacing any earlier entry.
func (s *SQLGeocodeCache) Store(ctx context.Context, address string, c domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("insert geocode cache: empty address key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lon, lat)
    VALUES ($1, $2, $3)
	ON CONFLICT (address) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat;
	`, address, c.Lon, c.Lat)
	if err != nil {
		return fmt.Errorf("insert geocode cache %q: %w", address, err)
	}
	return nil
}
