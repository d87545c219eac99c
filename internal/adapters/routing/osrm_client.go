// Package routing talks to an OSRM-compatible routing service.
package routing

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/iroy-mg/iroy-backend/internal/geo"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

// Route is a single itinerary returned by OSRM.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string
}

// Client requests routes from an OSRM server.
type Client struct {
	http *resty.Client
}

// NewClient creates an OSRM client with the configured base URL and timeout.
func NewClient(cfg *config.RoutingConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: client}
}

// OSRM profiles per transport mode. The public server only distinguishes
// these three.
var modeProfiles = map[geo.TravelMode]string{
	geo.ModeDriving: "driving",
	geo.ModeWalking: "foot",
	geo.ModeCycling: "bike",
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// GetRoute requests a route between two points. Any transport-level problem,
// non-Ok code or empty route list is returned as an error; the caller decides
// whether to fall back.
func (c *Client) GetRoute(ctx context.Context, fromLat, fromLng, toLat, toLng float64, mode geo.TravelMode) (*Route, error) {
	profile, ok := modeProfiles[mode]
	if !ok {
		profile = modeProfiles[geo.ModeDriving]
	}

	// OSRM wants lng,lat pairs
	path := fmt.Sprintf("/route/v1/%s/%f,%f;%f,%f", profile, fromLng, fromLat, toLng, toLat)

	var result osrmResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("overview", "full").
		SetQueryParam("geometries", "polyline").
		SetResult(&result).
		Get(path)

	if err != nil {
		return nil, fmt.Errorf("osrm request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("osrm returned status %d", resp.StatusCode())
	}
	if result.Code != "Ok" || len(result.Routes) == 0 {
		return nil, fmt.Errorf("osrm returned no route (code %q)", result.Code)
	}

	best := result.Routes[0]
	return &Route{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Geometry:        best.Geometry,
	}, nil
}
