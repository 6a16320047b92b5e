package handlers

import (
	"errors"
	"io"
	"net/http"
	"safe-route-service/internal/api/dto"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"strings"

	json "github.com/goccy/go-json"
)

const maxBodyBytes = 64 << 10

const (
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNoRouteFound        = "NO_ROUTE_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Ctx(r.Context()).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("encode failed")
	}
}

// WriteError writes the standard error body.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: msg}})
}

// Map a service error to its client-facing status and code.
// Upstream detail is logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, clientMessage(err))
	case errors.Is(err, domain.ErrNoRouteFound):
		WriteError(w, r, http.StatusNotFound, CodeNoRouteFound, "no route found between origin and destination")
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrStoreUnavailable):
		obs.Ctx(r.Context()).Warn().Err(err).Msg("upstream unavailable")
		WriteError(w, r, http.StatusBadGateway, CodeUpstreamUnavailable, "an upstream service is unavailable, retry later")
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthenticated, "missing or invalid API key")
	default:
		obs.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// Invalid-request errors are built by this service from client input and
// carry no upstream text, so their message can be shown.
func clientMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidRequest.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// decodeJSON reads exactly one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
