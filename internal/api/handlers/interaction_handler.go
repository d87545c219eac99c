package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
)

// InteractionHandler handles tracking and popularity endpoints
type InteractionHandler struct {
	service *services.InteractionService
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(service *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{service: service}
}

// CreateInteraction handles POST /api/interactions. The write is
// fire-and-forget; the client gets 202 as soon as the event is accepted.
func (h *InteractionHandler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	var event entities.InteractionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if event.SessionID == "" {
		event.SessionID = r.Header.Get("X-Session-ID")
	}

	if err := h.service.Record(r.Context(), &event); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// RecordView handles POST /api/centres/{id}/view
func (h *InteractionHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	centreID := r.PathValue("id")
	if centreID == "" {
		respondWithError(w, http.StatusBadRequest, "centre ID is required")
		return
	}

	if err := h.service.RecordView(r.Context(), centreID, r.Header.Get("X-Session-ID")); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// RecordContact handles POST /api/centres/{id}/contact
func (h *InteractionHandler) RecordContact(w http.ResponseWriter, r *http.Request) {
	centreID := r.PathValue("id")
	if centreID == "" {
		respondWithError(w, http.StatusBadRequest, "centre ID is required")
		return
	}

	if err := h.service.RecordContact(r.Context(), centreID, r.Header.Get("X-Session-ID")); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// PopularServices handles GET /api/popular-services. This endpoint never
// fails: aggregation errors degrade to the static fallback list.
func (h *InteractionHandler) PopularServices(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 30)

	result := h.service.Aggregate(r.Context(), days)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": result,
	})
}
