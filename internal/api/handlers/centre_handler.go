package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/pkg/idcodec"
)

// CentreHandler handles the public centre endpoints
type CentreHandler struct {
	service *services.CentreService
	codec   *idcodec.Codec
}

// NewCentreHandler creates a new centre handler
func NewCentreHandler(service *services.CentreService, codec *idcodec.Codec) *CentreHandler {
	return &CentreHandler{
		service: service,
		codec:   codec,
	}
}

// ListCentres handles GET /api/centres
func (h *CentreHandler) ListCentres(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCentreFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Public listings only ever see approved centres.
	filter.Status = entities.StatusApproved

	centres, pagination, err := h.service.Search(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	h.attachCodes(centres)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"centers":    centres,
		"pagination": pagination,
	})
}

// GetCentre handles GET /api/centres/{id}. The path segment may be either the
// raw id or its public encoded form.
func (h *CentreHandler) GetCentre(w http.ResponseWriter, r *http.Request) {
	id := h.resolveID(r.PathValue("id"))
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "centre ID is required")
		return
	}

	centre, err := h.service.GetPublicByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	centre.Code = h.codec.Encode(centre.ID)
	respondWithJSON(w, http.StatusOK, centre)
}

// SubmitCentre handles POST /api/centres, the public submission form.
func (h *CentreHandler) SubmitCentre(w http.ResponseWriter, r *http.Request) {
	var centre entities.Centre
	if err := json.NewDecoder(r.Body).Decode(&centre); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Submit(r.Context(), &centre); err != nil {
		respondWithAppError(w, err)
		return
	}

	centre.Code = h.codec.Encode(centre.ID)
	respondWithJSON(w, http.StatusCreated, &centre)
}

// UpdateCentre handles PUT /api/centres/{id}. Role-gated at the route; unlike
// the admin variant it accepts encoded public ids and edits always re-enter
// the review queue as pending.
func (h *CentreHandler) UpdateCentre(w http.ResponseWriter, r *http.Request) {
	id := h.resolveID(r.PathValue("id"))
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "centre ID is required")
		return
	}

	var centre entities.Centre
	if err := json.NewDecoder(r.Body).Decode(&centre); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	centre.ID = id
	centre.Status = entities.StatusPending

	if err := h.service.Update(r.Context(), &centre); err != nil {
		respondWithAppError(w, err)
		return
	}

	centre.Code = h.codec.Encode(centre.ID)
	respondWithJSON(w, http.StatusOK, &centre)
}

// DeleteCentre handles DELETE /api/centres/{id}
func (h *CentreHandler) DeleteCentre(w http.ResponseWriter, r *http.Request) {
	id := h.resolveID(r.PathValue("id"))
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "centre ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveID accepts a raw id or its encoded public form.
func (h *CentreHandler) resolveID(param string) string {
	if param == "" {
		return ""
	}
	if decoded, err := h.codec.Decode(param); err == nil {
		return decoded
	}
	return param
}

func (h *CentreHandler) attachCodes(centres []*entities.Centre) {
	for _, c := range centres {
		c.Code = h.codec.Encode(c.ID)
	}
}

// parseCentreFilter reads the shared search query parameters.
func parseCentreFilter(r *http.Request) (repositories.CentreFilter, error) {
	q := r.URL.Query()

	filter := repositories.CentreFilter{
		Query:           strings.TrimSpace(q.Get("q")),
		City:            strings.TrimSpace(q.Get("city")),
		CentreType:      strings.TrimSpace(q.Get("center_type")),
		ServiceCategory: strings.TrimSpace(q.Get("service_category")),
		SortBy:          repositories.SortKey(q.Get("sortBy")),
		NoPagination:    parseBool(q.Get("noPagination")),
	}

	if v := q.Get("emergency_24h"); v != "" {
		b := parseBool(v)
		filter.Emergency24h = &b
	}
	if v := q.Get("wheelchair_accessible"); v != "" {
		b := parseBool(v)
		filter.WheelchairAccessible = &b
	}

	if v := q.Get("services"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Services = append(filter.Services, s)
			}
		}
	}

	page := parseIntDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := parseIntDefault(q.Get("limit"), 20)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	if latStr, lngStr := q.Get("lat"), q.Get("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat == nil && errLng == nil {
			filter.Latitude = &lat
			filter.Longitude = &lng
		}
	}
	if v := q.Get("radius"); v != "" {
		if radius, err := strconv.ParseFloat(v, 64); err == nil && radius > 0 {
			filter.RadiusKm = radius
		}
	}

	return filter, nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
