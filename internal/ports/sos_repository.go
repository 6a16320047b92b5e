package ports

import (
	"context"
	"safe-route-service/internal/domain"
)

// Port: persistence for SOS events.
type SOSRepository interface {
	SaveSOSEvent(ctx context.Context, ev domain.SOSEvent) error
}
