package handlers

import (
	"net/http"
	"safe-route-service/internal/api/dto"
	"time"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.HealthResponse{Status: "ok", Time: time.Now().UTC()})
}
