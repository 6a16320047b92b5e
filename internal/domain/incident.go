package domain

// Represents a reported safety incident sourced from the incident store.
// Identifiers are unique and stable across requests.
// TimeFrom is empty when the time of day is unknown.
type IncidentRecord struct {
	ID          string
	Category    string
	Description string
	Area        string
	City        string
	Location    Coordinates
	Date        string
	TimeFrom    string
}

// IncidentIDs returns the identifiers of incidents in order.
func IncidentIDs(incidents []IncidentRecord) []string {
	ids := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		ids = append(ids, inc.ID)
	}
	return ids
}
