package domain

// Represents one candidate route returned by a mapping provider.
// A RouteCandidate is immutable once fetched and lives only for the
// duration of a single analysis request.
type RouteCandidate struct {
	ID              string
	Label           string
	Summary         string
	Points          []Coordinates
	DistanceMeters  int
	DurationSeconds int
}
