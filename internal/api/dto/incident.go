package dto

import "safe-route-service/internal/domain"

type IncidentPageRequest struct {
	RouteIncidentIDs []string `json:"routeIncidentIds" validate:"max=500"`
	Offset           int      `json:"offset" validate:"gte=0"`
	PageSize         int      `json:"pageSize" validate:"gte=0"`
}

type IncidentResponse struct {
	ID           string  `json:"id"`
	Categories   string  `json:"categories"`
	Description  string  `json:"description"`
	Area         string  `json:"area"`
	City         string  `json:"city"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	IncidentDate string  `json:"incident_date"`
	// Empty when the time of day is unknown.
	TimeFrom string `json:"time_from"`
}

type IncidentPageResponse struct {
	Incidents  []IncidentResponse `json:"incidents"`
	NextOffset int                `json:"next_offset"`
	HasMore    bool               `json:"has_more"`
}

func NewIncidentResponse(r domain.IncidentRecord) IncidentResponse {
	return IncidentResponse{
		ID:           r.ID,
		Categories:   r.Category,
		Description:  r.Description,
		Area:         r.Area,
		City:         r.City,
		Lat:          r.Location.Lat,
		Lng:          r.Location.Lon,
		IncidentDate: r.Date,
		TimeFrom:     r.TimeFrom,
	}
}
