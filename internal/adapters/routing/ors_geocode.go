package routing

import (
	"context"
	"fmt"
	"net/http"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"

	json "github.com/goccy/go-json"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// resolve turns a location string into coordinates. "lat,lng" strings are
// parsed directly; anything else goes through the geocode cache and then
// OpenRouteService (/geocode/search).
func (o *ORSDirectionsProvider) resolve(ctx context.Context, location string) (domain.Coordinates, error) {
	if c, ok := domain.ParseLatLng(location); ok {
		return c, nil
	}

	norm := normalize(location)

	if o.geocodeCache != nil {
		c, ok, err := o.geocodeCache.Lookup(ctx, norm)
		if err != nil {
			obs.Ctx(ctx).Warn().Err(err).Msg("geocode cache read failed")
		} else if ok {
			return c, nil
		}
	}

	c, err := o.geocode(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.Store(ctx, norm, c); err != nil {
			obs.Ctx(ctx).Warn().Err(err).Msg("geocode cache write failed")
		}
	}

	return c, nil
}

func (o *ORSDirectionsProvider) geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocode")(&err)

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: geocode %q: %w", domain.ErrUpstreamUnavailable, address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: decode geocode response: %w", domain.ErrUpstreamUnavailable, err)
	}

	// An address the geocoder cannot place has no route.
	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%w: no geocode results for %q", domain.ErrNoRouteFound, address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("%w: invalid coordinate format for %q", domain.ErrUpstreamUnavailable, address)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
