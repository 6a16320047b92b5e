package domain

import "time"

// An emergency alert raised by a user at a location.
type SOSEvent struct {
	ID        string
	UserID    string
	Location  Coordinates
	Message   string
	CreatedAt time.Time
}
