package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iroy-mg/iroy-backend/internal/api/middleware"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
)

// AdminHandler handles the back-office endpoints. Role gating happens in the
// auth middleware; handlers only implement the operations.
type AdminHandler struct {
	centres      *services.CentreService
	interactions *services.InteractionService
	exports      *services.ExportService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(centres *services.CentreService, interactions *services.InteractionService, exports *services.ExportService) *AdminHandler {
	return &AdminHandler{
		centres:      centres,
		interactions: interactions,
		exports:      exports,
	}
}

// ListCentres handles GET /api/admin/centres. Unlike the public listing it
// sees every moderation status and defaults to the review queue order.
func (h *AdminHandler) ListCentres(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCentreFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = entities.CentreStatus(status)
	}

	centres, pagination, err := h.centres.Search(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"centers":    centres,
		"pagination": pagination,
	})
}

// CreateCentre handles POST /api/admin/centres
func (h *AdminHandler) CreateCentre(w http.ResponseWriter, r *http.Request) {
	var centre entities.Centre
	if err := json.NewDecoder(r.Body).Decode(&centre); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.centres.Create(r.Context(), &centre); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, &centre)
}

// GetCentre handles GET /api/admin/centres/{id}
func (h *AdminHandler) GetCentre(w http.ResponseWriter, r *http.Request) {
	centre, err := h.centres.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, centre)
}

// UpdateCentre handles PUT /api/admin/centres/{id}. A body carrying only a
// status change goes through the moderation path.
func (h *AdminHandler) UpdateCentre(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var payload struct {
		entities.Centre
		StatusOnly bool `json:"status_only,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.StatusOnly {
		if err := h.centres.UpdateStatus(r.Context(), id, payload.Status); err != nil {
			respondWithAppError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": string(payload.Status)})
		return
	}

	centre := payload.Centre
	centre.ID = id
	if err := h.centres.Update(r.Context(), &centre); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, &centre)
}

// DeleteCentre handles DELETE /api/admin/centres/{id}
func (h *AdminHandler) DeleteCentre(w http.ResponseWriter, r *http.Request) {
	if err := h.centres.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkAction handles POST /api/admin/centres/bulk. The batch succeeds or
// fails as a whole.
func (h *AdminHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string   `json:"action"`
		IDs    []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Bulk delete is destructive enough to need the top role.
	if services.BulkAction(req.Action) == services.BulkDelete {
		user := middleware.AdminUserFromContext(r.Context())
		if user == nil || !user.HasRole(entities.RoleSuperAdmin) {
			respondWithError(w, http.StatusForbidden, "insufficient role")
			return
		}
	}

	if err := h.centres.Bulk(r.Context(), services.BulkAction(req.Action), req.IDs); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(req.IDs),
	})
}

// Analytics handles GET /api/admin/analytics?days=N
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 30)

	summary, err := h.interactions.Analytics(r.Context(), days)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// Reports handles GET /api/admin/reports?format=json|csv
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	report, err := h.exports.Report(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		respondWithJSON(w, http.StatusOK, report)
	case "csv":
		data, err := h.exports.ReportCSV(report)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="rapport-centres.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		respondWithError(w, http.StatusBadRequest, "unsupported report format")
	}
}

// Export handles GET /api/admin/export?format=csv|pdf|xlsx over the current
// filtered set.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCentreFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = entities.CentreStatus(status)
	}

	format := services.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = services.FormatCSV
	}

	result, err := h.exports.Export(r.Context(), filter, format)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// The printable document opens in the browser for print-to-PDF; the
	// others download.
	disposition := "attachment"
	if format == services.FormatPDF {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}
