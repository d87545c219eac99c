package routing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/adapters/routing"
	"github.com/iroy-mg/iroy-backend/internal/geo"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *routing.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return routing.NewClient(&config.RoutingConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	})
}

func TestClient_GetRoute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":4520.3,"duration":680.5,"geometry":"abc"}]}`))
	})

	route, err := client.GetRoute(context.Background(), -21.45, 47.08, -21.43, 47.09, geo.ModeDriving)
	require.NoError(t, err)
	assert.InDelta(t, 4520.3, route.DistanceMeters, 0.01)
	assert.InDelta(t, 680.5, route.DurationSeconds, 0.01)
	assert.Equal(t, "abc", route.Geometry)
}

func TestClient_GetRoute_WalkingProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/foot/")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":900,"duration":700,"geometry":""}]}`))
	})

	_, err := client.GetRoute(context.Background(), -21.45, 47.08, -21.43, 47.09, geo.ModeWalking)
	assert.NoError(t, err)
}

func TestClient_GetRoute_EmptyRoutes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[]}`))
	})

	_, err := client.GetRoute(context.Background(), -21.45, 47.08, -21.43, 47.09, geo.ModeDriving)
	assert.Error(t, err)
}

func TestClient_GetRoute_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetRoute(context.Background(), -21.45, 47.08, -21.43, 47.09, geo.ModeDriving)
	assert.Error(t, err)
}
