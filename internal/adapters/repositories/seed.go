package repositories

import (
	"fmt"
	"os"
	"safe-route-service/internal/domain"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type IncidentSeed struct {
	ID          string  `json:"id"`
	Category    string  `json:"categories"`
	Description string  `json:"description"`
	Area        string  `json:"area"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Date        string  `json:"incident_date"`
	TimeFrom    string  `json:"time_from"`
}

// LoadIncidentSeeds reads and validates incident seed data from a JSON file.
func LoadIncidentSeeds(jsonPath string) ([]domain.IncidentRecord, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", jsonPath, err)
	}

	var data []IncidentSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(data))
	out := make([]domain.IncidentRecord, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("item at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("item at index %d: duplicate id %q", i+1, id)
		}
		seen[id] = struct{}{}

		loc := domain.Coordinates{Lat: item.Lat, Lon: item.Lng}
		if !loc.Valid() {
			return nil, fmt.Errorf("item %q: invalid coordinates (%v, %v)", id, item.Lat, item.Lng)
		}

		if _, err := time.Parse(time.DateOnly, item.Date); err != nil {
			return nil, fmt.Errorf("item %q: incident_date must be YYYY-MM-DD: %w", id, err)
		}

		tf := strings.TrimSpace(item.TimeFrom)
		// Seed exports use midnight to mean "time unknown".
		if tf == "00:00:00" {
			tf = ""
		}

		out = append(out, domain.IncidentRecord{
			ID:          id,
			Category:    strings.TrimSpace(item.Category),
			Description: strings.TrimSpace(item.Description),
			Area:        strings.TrimSpace(item.Area),
			City:        strings.TrimSpace(item.City),
			Location:    loc,
			Date:        item.Date,
			TimeFrom:    tf,
		})
	}

	return out, nil
}
