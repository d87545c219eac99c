package services

import (
	"context"
	"log"

	"github.com/iroy-mg/iroy-backend/internal/adapters/routing"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/geo"
	"github.com/iroy-mg/iroy-backend/pkg/config"
	"github.com/iroy-mg/iroy-backend/pkg/errors"
)

// RouteRequest describes one itinerary computation.
type RouteRequest struct {
	FromLat *float64
	FromLng *float64
	ToLat   *float64
	ToLng   *float64
	Mode    geo.TravelMode
}

// Router requests routes from an external routing engine.
type Router interface {
	GetRoute(ctx context.Context, fromLat, fromLng, toLat, toLng float64, mode geo.TravelMode) (*routing.Route, error)
}

// NavigationService computes itineraries with a straight-line fallback.
type NavigationService struct {
	router Router
	cfg    config.RoutingConfig
}

// NewNavigationService creates a navigation service. router may be nil, in
// which case every estimate is straight-line.
func NewNavigationService(router Router, cfg config.RoutingConfig) *NavigationService {
	return &NavigationService{router: router, cfg: cfg}
}

// GetRoute estimates the itinerary for the request. Missing destination
// coordinates are the only user-visible error; origin defaults cannot exist
// server-side, so a missing origin is reported the same way. Everything else
// degrades to the straight-line estimate.
func (s *NavigationService) GetRoute(ctx context.Context, req RouteRequest) (*entities.RouteEstimate, error) {
	if req.ToLat == nil || req.ToLng == nil {
		return nil, errors.NewValidationError("destination coordinates are required")
	}
	if req.FromLat == nil || req.FromLng == nil {
		return nil, errors.NewValidationError("origin coordinates are required")
	}

	mode := req.Mode
	if mode == "" {
		mode = geo.ModeDriving
	}

	distanceKm := geo.DistanceKm(*req.FromLat, *req.FromLng, *req.ToLat, *req.ToLng)

	// Long trips skip the routing engine entirely.
	if s.router != nil && distanceKm <= s.cfg.MaxRouteDistanceKm {
		route, err := s.router.GetRoute(ctx, *req.FromLat, *req.FromLng, *req.ToLat, *req.ToLng, mode)
		if err != nil {
			log.Printf("Warning: routing engine unavailable, using straight-line estimate: %v", err)
		} else {
			return &entities.RouteEstimate{
				DistanceKm:      route.DistanceMeters / 1000,
				DurationMinutes: route.DurationSeconds / 60,
				Mode:            string(mode),
				Source:          entities.RouteSourceOSRM,
				Geometry:        route.Geometry,
			}, nil
		}
	}

	duration := geo.EstimateDuration(distanceKm, mode)
	return &entities.RouteEstimate{
		DistanceKm:      distanceKm,
		DurationMinutes: duration.Minutes(),
		Mode:            string(mode),
		Source:          entities.RouteSourceEstimate,
	}, nil
}
