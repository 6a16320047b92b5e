package handlers

import (
	"context"
	"net/http"
	"safe-route-service/internal/api/dto"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/validation"
	"strings"
)

type RouteAnalyzer interface {
	Analyze(ctx context.Context, origin, destination string) (*domain.AggregatedResponse, error)
}

type RouteSafetyHandler struct {
	Analyzer RouteAnalyzer
}

// Get serves GET /route-safety?from=&to=.
func (h *RouteSafetyHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.analyze(w, r, dto.RouteSafetyQuery{From: q.Get("from"), To: q.Get("to")})
}

// GetNavigationRoute serves the older /api/v1/navigation/route?origin=&destination= form.
func (h *RouteSafetyHandler) GetNavigationRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.analyze(w, r, dto.RouteSafetyQuery{From: q.Get("origin"), To: q.Get("destination")})
}

func (h *RouteSafetyHandler) analyze(w http.ResponseWriter, r *http.Request, req dto.RouteSafetyQuery) {
	req.From = strings.TrimSpace(req.From)
	req.To = strings.TrimSpace(req.To)

	if err := validation.Struct(req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	resp, err := h.Analyzer.Analyze(r.Context(), req.From, req.To)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteSafetyResponse(resp))
}
