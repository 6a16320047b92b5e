package services

import (
	"context"
	"fmt"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TriggerSOSRequest struct {
	UserID   string
	Location domain.Coordinates
	Message  string
}

// Record an SOS alert and return the stored event.
func TriggerSOS(
	ctx context.Context,
	req TriggerSOSRequest,
	repo ports.SOSRepository,
	now func() time.Time,
) (domain.SOSEvent, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.SOSEvent{}, fmt.Errorf("%w: userId is required", domain.ErrInvalidRequest)
	}
	if !req.Location.Valid() {
		return domain.SOSEvent{}, fmt.Errorf("%w: location out of range", domain.ErrInvalidRequest)
	}
	if now == nil {
		now = time.Now
	}

	ev := domain.SOSEvent{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(req.UserID),
		Location:  req.Location,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: now().UTC(),
	}

	if err := repo.SaveSOSEvent(ctx, ev); err != nil {
		return domain.SOSEvent{}, fmt.Errorf("trigger sos: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	obs.Ctx(ctx).Warn().
		Str("sos_id", ev.ID).
		Str("user_id", ev.UserID).
		Float64("lat", ev.Location.Lat).
		Float64("lng", ev.Location.Lon).
		Msg("sos triggered")

	return ev, nil
}
