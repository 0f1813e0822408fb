package routes

import (
	"net/http"

	"github.com/zatekoja/helpdesk-search/internal/api/handlers"
	"github.com/zatekoja/helpdesk-search/internal/api/middleware"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler *handlers.SearchHandler
	healthHandler *handlers.HealthHandler
	sseHandler    *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. metrics may be nil when telemetry is off.
func NewRouter(
	searchHandler *handlers.SearchHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		searchHandler:  searchHandler,
		healthHandler:  healthHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// WithEventStream enables the live analytics stream.
func (r *Router) WithEventStream(h *handlers.SSEHandler) *Router {
	r.sseHandler = h
	return r
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Search endpoints
	r.mux.HandleFunc("GET /api/search", r.searchHandler.Search)
	r.mux.HandleFunc("GET /api/search/suggest", r.searchHandler.Suggest)
	r.mux.HandleFunc("GET /api/search/did-you-mean", r.searchHandler.DidYouMean)
	r.mux.HandleFunc("POST /api/search/click", r.searchHandler.TrackClick)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/search", r.searchHandler.SearchAnalytics)
	r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.searchHandler.ZeroResultQueries)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/stream", r.sseHandler.StreamSearchEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight requests short-circuit first
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
