package handlers

import (
	"net/http"
	"safe-route-service/internal/api/dto"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/validation"
	"safe-route-service/internal/ports"
	"safe-route-service/internal/services"
	"time"
)

type SOSHandler struct {
	Repo ports.SOSRepository
	Now  func() time.Time
}

// Trigger serves POST /sos.
func (h *SOSHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req dto.SOSRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validation.Struct(req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	ev, err := services.TriggerSOS(r.Context(), services.TriggerSOSRequest{
		UserID:   req.UserID,
		Location: domain.Coordinates{Lat: *req.Lat, Lon: *req.Lng},
		Message:  req.Message,
	}, h.Repo, h.Now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, dto.SOSResponse{
		Status:    "SOS Triggered",
		ID:        ev.ID,
		CreatedAt: ev.CreatedAt,
	})
}
