package handlers

import (
	"net/http"
	"strconv"

	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/geo"
)

// NavigationHandler handles the routing overlay endpoint
type NavigationHandler struct {
	service *services.NavigationService
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(service *services.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

// GetRoute handles GET /api/navigation/route
func (h *NavigationHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := services.RouteRequest{
		FromLat: parseFloatParam(q.Get("from_lat")),
		FromLng: parseFloatParam(q.Get("from_lng")),
		ToLat:   parseFloatParam(q.Get("to_lat")),
		ToLng:   parseFloatParam(q.Get("to_lng")),
		Mode:    geo.TravelMode(q.Get("mode")),
	}

	estimate, err := h.service.GetRoute(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, estimate)
}

func parseFloatParam(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
