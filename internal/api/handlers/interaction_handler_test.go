package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

func newInteractionHandler(repo *stubInteractionRepo, centres *stubCentreRepo) *handlers.InteractionHandler {
	service := services.NewInteractionService(repo, centres, nil, nil, config.TrackingConfig{
		ViewCooldown:       5 * time.Minute,
		MinPopularServices: 6,
	})
	return handlers.NewInteractionHandler(service)
}

func awaitEvent(t *testing.T, ch chan *entities.InteractionEvent) *entities.InteractionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event")
		return nil
	}
}

func TestInteractionHandler_CreateInteraction(t *testing.T) {
	repo := newStubInteractionRepo()
	handler := newInteractionHandler(repo, newStubCentreRepo())

	body := `{"type": "service_search", "search_term": "urgence"}`
	req := httptest.NewRequest("POST", "/api/interactions", strings.NewReader(body))
	req.Header.Set("X-Session-ID", "sess-1")
	w := httptest.NewRecorder()
	handler.CreateInteraction(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	ev := awaitEvent(t, repo.logged)
	assert.Equal(t, entities.InteractionServiceSearch, ev.Type)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.Equal(t, "urgence", ev.SearchTerm)
}

func TestInteractionHandler_CreateInteraction_UnknownType(t *testing.T) {
	handler := newInteractionHandler(newStubInteractionRepo(), newStubCentreRepo())

	req := httptest.NewRequest("POST", "/api/interactions", strings.NewReader(`{"type": "hover"}`))
	w := httptest.NewRecorder()
	handler.CreateInteraction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInteractionHandler_RecordView(t *testing.T) {
	repo := newStubInteractionRepo()
	centres := newStubCentreRepo()
	handler := newInteractionHandler(repo, centres)

	req := httptest.NewRequest("POST", "/api/centres/c-1/view", nil)
	req.SetPathValue("id", "c-1")
	req.Header.Set("X-Session-ID", "sess-1")
	w := httptest.NewRecorder()
	handler.RecordView(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, centres.views["c-1"])

	ev := awaitEvent(t, repo.logged)
	assert.Equal(t, entities.InteractionCentreView, ev.Type)
	assert.Equal(t, "c-1", ev.CentreID)
}

func TestInteractionHandler_RecordContact(t *testing.T) {
	repo := newStubInteractionRepo()
	handler := newInteractionHandler(repo, newStubCentreRepo())

	req := httptest.NewRequest("POST", "/api/centres/c-1/contact", nil)
	req.SetPathValue("id", "c-1")
	w := httptest.NewRecorder()
	handler.RecordContact(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	ev := awaitEvent(t, repo.logged)
	assert.Equal(t, entities.InteractionCentreContact, ev.Type)
}

func TestInteractionHandler_PopularServices(t *testing.T) {
	handler := newInteractionHandler(newStubInteractionRepo(), newStubCentreRepo())

	req := httptest.NewRequest("GET", "/api/popular-services?days=7", nil)
	w := httptest.NewRecorder()
	handler.PopularServices(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Services []*entities.ServicePopularity `json:"services"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.NotEmpty(t, response.Services)
	assert.Equal(t, "Urgences", response.Services[0].ServiceName)
	// The panel is padded up to the configured minimum.
	assert.Len(t, response.Services, 6)
}
