package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

func TestNavigationHandler_GetRoute_FallbackEstimate(t *testing.T) {
	// No routing engine wired: everything is a straight-line estimate.
	service := services.NewNavigationService(nil, config.RoutingConfig{MaxRouteDistanceKm: 100})
	handler := handlers.NewNavigationHandler(service)

	req := httptest.NewRequest("GET",
		"/api/navigation/route?from_lat=-18.91&from_lng=47.52&to_lat=-18.80&to_lng=47.48&mode=driving", nil)
	w := httptest.NewRecorder()
	handler.GetRoute(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var estimate entities.RouteEstimate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&estimate))
	assert.Equal(t, entities.RouteSourceEstimate, estimate.Source)
	assert.Equal(t, "driving", estimate.Mode)
	assert.Greater(t, estimate.DistanceKm, 0.0)
	assert.Greater(t, estimate.DurationMinutes, 0.0)
	assert.Empty(t, estimate.Geometry)
}

func TestNavigationHandler_GetRoute_MissingDestination(t *testing.T) {
	service := services.NewNavigationService(nil, config.RoutingConfig{MaxRouteDistanceKm: 100})
	handler := handlers.NewNavigationHandler(service)

	req := httptest.NewRequest("GET", "/api/navigation/route?from_lat=-18.91&from_lng=47.52", nil)
	w := httptest.NewRecorder()
	handler.GetRoute(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
