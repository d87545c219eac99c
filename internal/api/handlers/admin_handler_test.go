package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/api/middleware"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

type adminFixture struct {
	repo    *stubCentreRepo
	handler *handlers.AdminHandler
	auth    *middleware.AuthMiddleware
}

func newAdminFixture() *adminFixture {
	repo := newStubCentreRepo()
	centreService := services.NewCentreService(repo, nil)
	interactionService := services.NewInteractionService(newStubInteractionRepo(), repo, nil, nil, config.TrackingConfig{
		ViewCooldown:       5 * time.Minute,
		MinPopularServices: 6,
	})
	exportService := services.NewExportService(repo)

	users := &stubAdminUserRepo{users: map[string]*entities.AdminUser{
		"mod-token":   {ID: "u-1", Role: entities.RoleModerator, IsActive: true},
		"admin-token": {ID: "u-2", Role: entities.RoleAdmin, IsActive: true},
		"super-token": {ID: "u-3", Role: entities.RoleSuperAdmin, IsActive: true},
	}}

	return &adminFixture{
		repo:    repo,
		handler: handlers.NewAdminHandler(centreService, interactionService, exportService),
		auth:    middleware.NewAuthMiddleware(users),
	}
}

func (f *adminFixture) seed(id, name string, status entities.CentreStatus) {
	f.repo.centres[id] = &entities.Centre{
		ID:         id,
		Name:       name,
		CentreType: entities.CentreTypeHospital,
		City:       "Antananarivo",
		Phone:      "+261 20 22 123 45",
		Services:   []string{"Urgences"},
		Status:     status,
	}
}

func TestAdminHandler_Unauthenticated(t *testing.T) {
	f := newAdminFixture()
	protected := f.auth.RequireRole(entities.RoleModerator, f.handler.ListCentres)

	req := httptest.NewRequest("GET", "/api/admin/centres", nil)
	w := httptest.NewRecorder()
	protected(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/admin/centres", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w = httptest.NewRecorder()
	protected(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_InsufficientRole(t *testing.T) {
	f := newAdminFixture()
	protected := f.auth.RequireRole(entities.RoleAdmin, f.handler.CreateCentre)

	req := httptest.NewRequest("POST", "/api/admin/centres", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer mod-token")
	w := httptest.NewRecorder()
	protected(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_ListCentres_SeesAllStatuses(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "Approved One", entities.StatusApproved)
	f.seed("c-2", "Pending One", entities.StatusPending)

	protected := f.auth.RequireRole(entities.RoleModerator, f.handler.ListCentres)

	req := httptest.NewRequest("GET", "/api/admin/centres", nil)
	req.Header.Set("Authorization", "Bearer mod-token")
	w := httptest.NewRecorder()
	protected(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Centers    []*entities.Centre  `json:"centers"`
		Pagination entities.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Pagination.Total)
}

func TestAdminHandler_StatusOnlyUpdate(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "Pending One", entities.StatusPending)

	req := httptest.NewRequest("PUT", "/api/admin/centres/c-1",
		strings.NewReader(`{"status_only": true, "status": "approved"}`))
	req.SetPathValue("id", "c-1")
	w := httptest.NewRecorder()
	f.handler.UpdateCentre(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.StatusApproved, f.repo.statusChanges["c-1"])
}

func TestAdminHandler_BulkApprove(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusPending)
	f.seed("c-2", "Two", entities.StatusPending)

	protected := f.auth.RequireRole(entities.RoleAdmin, f.handler.BulkAction)

	body, _ := json.Marshal(map[string]interface{}{"action": "approve", "ids": []string{"c-1", "c-2"}})
	req := httptest.NewRequest("POST", "/api/admin/centres/bulk", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	protected(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.StatusApproved, f.repo.statusChanges["c-1"])
	assert.Equal(t, entities.StatusApproved, f.repo.statusChanges["c-2"])
}

func TestAdminHandler_BulkDelete_RequiresSuperAdmin(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusRejected)

	protected := f.auth.RequireRole(entities.RoleAdmin, f.handler.BulkAction)
	body := `{"action": "delete", "ids": ["c-1"]}`

	req := httptest.NewRequest("POST", "/api/admin/centres/bulk", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	protected(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.repo.deleted)

	req = httptest.NewRequest("POST", "/api/admin/centres/bulk", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer super-token")
	w = httptest.NewRecorder()
	protected(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"c-1"}, f.repo.deleted)
}

func TestAdminHandler_BulkFailsAsOneBatch(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusPending)

	body := `{"action": "approve", "ids": ["c-1", "missing"]}`
	req := httptest.NewRequest("POST", "/api/admin/centres/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.BulkAction(w, req)

	// Generic error for the whole batch, no per-item reporting.
	assert.Equal(t, http.StatusNotFound, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response["error"])
}

func TestAdminHandler_Analytics(t *testing.T) {
	f := newAdminFixture()

	req := httptest.NewRequest("GET", "/api/admin/analytics?days=7", nil)
	w := httptest.NewRecorder()
	f.handler.Analytics(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary services.AnalyticsSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, 5, summary.TotalsByType[entities.InteractionCentreView])
	require.NotEmpty(t, summary.TopServices)
	assert.Equal(t, "Urgences", summary.TopServices[0].ServiceName)
}

func TestAdminHandler_Reports_JSONAndCSV(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusApproved)

	req := httptest.NewRequest("GET", "/api/admin/reports", nil)
	w := httptest.NewRecorder()
	f.handler.Reports(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var report services.ListingReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, 1, report.ByStatus[entities.StatusApproved])

	req = httptest.NewRequest("GET", "/api/admin/reports?format=csv", nil)
	w = httptest.NewRecorder()
	f.handler.Reports(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestAdminHandler_Export_CSVHeaders(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusApproved)

	req := httptest.NewRequest("GET", "/api/admin/export?format=csv", nil)
	w := httptest.NewRecorder()
	f.handler.Export(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "Nom")
}

func TestAdminHandler_Export_PrintableHTMLInline(t *testing.T) {
	f := newAdminFixture()
	f.seed("c-1", "One", entities.StatusApproved)

	req := httptest.NewRequest("GET", "/api/admin/export?format=pdf", nil)
	w := httptest.NewRecorder()
	f.handler.Export(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
}

func TestAdminHandler_Export_UnknownFormat(t *testing.T) {
	f := newAdminFixture()

	req := httptest.NewRequest("GET", "/api/admin/export?format=docx", nil)
	w := httptest.NewRecorder()
	f.handler.Export(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
