package routes

import (
	"net/http"

	"github.com/iroy-mg/iroy-backend/internal/api/handlers"
	"github.com/iroy-mg/iroy-backend/internal/api/middleware"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	centreHandler      *handlers.CentreHandler
	interactionHandler *handlers.InteractionHandler
	navigationHandler  *handlers.NavigationHandler
	adminHandler       *handlers.AdminHandler

	authMiddleware  *middleware.AuthMiddleware
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	centreHandler *handlers.CentreHandler,
	interactionHandler *handlers.InteractionHandler,
	navigationHandler *handlers.NavigationHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		centreHandler:      centreHandler,
		interactionHandler: interactionHandler,
		navigationHandler:  navigationHandler,
		adminHandler:       adminHandler,

		authMiddleware:  authMiddleware,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	auth := r.authMiddleware

	// Public centre endpoints. Mutations share the /api/centres path but are
	// role-gated like their admin counterparts; only reads, submission and
	// tracking stay anonymous.
	r.mux.HandleFunc("GET /api/centres", r.centreHandler.ListCentres)
	r.mux.HandleFunc("POST /api/centres", r.centreHandler.SubmitCentre)
	r.mux.HandleFunc("GET /api/centres/{id}", r.centreHandler.GetCentre)
	r.mux.HandleFunc("PUT /api/centres/{id}", auth.RequireRole(entities.RoleModerator, r.centreHandler.UpdateCentre))
	r.mux.HandleFunc("DELETE /api/centres/{id}", auth.RequireRole(entities.RoleAdmin, r.centreHandler.DeleteCentre))

	// Tracking endpoints
	r.mux.HandleFunc("POST /api/centres/{id}/view", r.interactionHandler.RecordView)
	r.mux.HandleFunc("POST /api/centres/{id}/contact", r.interactionHandler.RecordContact)
	r.mux.HandleFunc("POST /api/interactions", r.interactionHandler.CreateInteraction)
	r.mux.HandleFunc("GET /api/popular-services", r.interactionHandler.PopularServices)

	// Navigation endpoint
	r.mux.HandleFunc("GET /api/navigation/route", r.navigationHandler.GetRoute)

	// Admin endpoints. Moderators can read and moderate, admins manage
	// records; bulk delete additionally checks super_admin in the handler.
	r.mux.HandleFunc("GET /api/admin/centres", auth.RequireRole(entities.RoleModerator, r.adminHandler.ListCentres))
	r.mux.HandleFunc("POST /api/admin/centres", auth.RequireRole(entities.RoleAdmin, r.adminHandler.CreateCentre))
	r.mux.HandleFunc("GET /api/admin/centres/{id}", auth.RequireRole(entities.RoleModerator, r.adminHandler.GetCentre))
	r.mux.HandleFunc("PUT /api/admin/centres/{id}", auth.RequireRole(entities.RoleModerator, r.adminHandler.UpdateCentre))
	r.mux.HandleFunc("DELETE /api/admin/centres/{id}", auth.RequireRole(entities.RoleAdmin, r.adminHandler.DeleteCentre))
	r.mux.HandleFunc("POST /api/admin/centres/bulk", auth.RequireRole(entities.RoleAdmin, r.adminHandler.BulkAction))
	r.mux.HandleFunc("GET /api/admin/analytics", auth.RequireRole(entities.RoleModerator, r.adminHandler.Analytics))
	r.mux.HandleFunc("GET /api/admin/reports", auth.RequireRole(entities.RoleModerator, r.adminHandler.Reports))
	r.mux.HandleFunc("GET /api/admin/export", auth.RequireRole(entities.RoleModerator, r.adminHandler.Export))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
