package handlers

import (
	"context"
	"net/http"
	"safe-route-service/internal/api/dto"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/validation"
)

type IncidentPager interface {
	Page(ctx context.Context, ids []string, offset, pageSize int) ([]domain.IncidentRecord, error)
	PageSize(requested int) int
}

type IncidentHandler struct {
	Pager IncidentPager
}

// Page serves POST /incidents/page. The client carries the offset between
// calls; next_offset is where the following page starts.
func (h *IncidentHandler) Page(w http.ResponseWriter, r *http.Request) {
	var req dto.IncidentPageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validation.Struct(req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	records, err := h.Pager.Page(r.Context(), req.RouteIncidentIDs, req.Offset, req.PageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	next := min(req.Offset+h.Pager.PageSize(req.PageSize), len(req.RouteIncidentIDs))
	if req.Offset > next {
		next = req.Offset
	}

	res := dto.IncidentPageResponse{
		Incidents:  make([]dto.IncidentResponse, 0, len(records)),
		NextOffset: next,
		HasMore:    next < len(req.RouteIncidentIDs),
	}
	for _, rec := range records {
		res.Incidents = append(res.Incidents, dto.NewIncidentResponse(rec))
	}

	writeJSON(w, r, http.StatusOK, res)
}
