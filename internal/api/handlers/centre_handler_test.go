package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/pkg/idcodec"
)

func testCodec(t *testing.T) *idcodec.Codec {
	t.Helper()
	codec, err := idcodec.New("test-key")
	require.NoError(t, err)
	return codec
}

func newCentreHandler(t *testing.T, repo *stubCentreRepo) *handlers.CentreHandler {
	t.Helper()
	service := services.NewCentreService(repo, nil)
	return handlers.NewCentreHandler(service, testCodec(t))
}

func TestCentreHandler_ListCentres(t *testing.T) {
	repo := newStubCentreRepo()
	repo.listFn = func(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, int, error) {
		// Public listing is always restricted to approved centres.
		assert.Equal(t, entities.StatusApproved, filter.Status)
		return []*entities.Centre{
			{ID: "c-1", Name: "Hôpital HJRA", CentreType: entities.CentreTypeHospital, Status: entities.StatusApproved},
		}, 1, nil
	}

	handler := newCentreHandler(t, repo)

	req := httptest.NewRequest("GET", "/api/centres?city=Antananarivo&limit=10", nil)
	w := httptest.NewRecorder()
	handler.ListCentres(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Centers []struct {
			ID   string `json:"id"`
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"centers"`
		Pagination entities.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Centers, 1)
	assert.Equal(t, "Hôpital HJRA", response.Centers[0].Name)
	assert.NotEmpty(t, response.Centers[0].Code)
	assert.NotEqual(t, response.Centers[0].ID, response.Centers[0].Code)
	assert.Equal(t, 1, response.Pagination.Total)
}

func TestCentreHandler_GetCentre_ByEncodedCode(t *testing.T) {
	repo := newStubCentreRepo()
	repo.centres["c-1"] = &entities.Centre{
		ID:     "c-1",
		Name:   "Clinique des Soeurs",
		Status: entities.StatusApproved,
	}

	codec := testCodec(t)
	service := services.NewCentreService(repo, nil)
	handler := handlers.NewCentreHandler(service, codec)

	req := httptest.NewRequest("GET", "/api/centres/"+codec.Encode("c-1"), nil)
	req.SetPathValue("id", codec.Encode("c-1"))
	w := httptest.NewRecorder()
	handler.GetCentre(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var centre entities.Centre
	require.NoError(t, json.NewDecoder(w.Body).Decode(&centre))
	assert.Equal(t, "c-1", centre.ID)
	assert.Equal(t, codec.Encode("c-1"), centre.Code)
}

func TestCentreHandler_GetCentre_PendingIsNotFound(t *testing.T) {
	repo := newStubCentreRepo()
	repo.centres["c-1"] = &entities.Centre{ID: "c-1", Status: entities.StatusPending}

	handler := newCentreHandler(t, repo)

	req := httptest.NewRequest("GET", "/api/centres/c-1", nil)
	req.SetPathValue("id", "c-1")
	w := httptest.NewRecorder()
	handler.GetCentre(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCentreHandler_SubmitCentre_Valid(t *testing.T) {
	repo := newStubCentreRepo()
	handler := newCentreHandler(t, repo)

	body := `{
		"name": "Pharmacie Hasina",
		"center_type": "pharmacie",
		"city": "Toamasina",
		"phone": "+261 34 05 123 45",
		"services": ["Pharmacie de garde"],
		"status": "approved"
	}`
	req := httptest.NewRequest("POST", "/api/centres", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SubmitCentre(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	// Self-declared status is ignored; submissions start pending.
	assert.Equal(t, entities.StatusPending, repo.created[0].Status)

	var centre entities.Centre
	require.NoError(t, json.NewDecoder(w.Body).Decode(&centre))
	assert.NotEmpty(t, centre.Code)
}

func TestCentreHandler_SubmitCentre_ValidationErrors(t *testing.T) {
	handler := newCentreHandler(t, newStubCentreRepo())

	body := `{"name": "", "center_type": "pharmacie", "city": "Toamasina", "phone": "x"}`
	req := httptest.NewRequest("POST", "/api/centres", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SubmitCentre(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response.Error)
	assert.Contains(t, response.Fields, "name")
	assert.Contains(t, response.Fields, "services")
}

func TestCentreHandler_SubmitCentre_BadJSON(t *testing.T) {
	handler := newCentreHandler(t, newStubCentreRepo())

	req := httptest.NewRequest("POST", "/api/centres", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.SubmitCentre(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
