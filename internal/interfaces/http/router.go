package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/interfaces/http/handlers"
	"github.com/turtacn/launch-radar/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	HealthHandler     *handlers.HealthHandler
	SessionHandler    *handlers.SessionHandler
	CatalogHandler    *handlers.CatalogHandler
	DashboardHandler  *handlers.DashboardHandler
	BlockerHandler    *handlers.BlockerHandler
	EscalationHandler *handlers.EscalationHandler
	CommentHandler    *handlers.CommentHandler

	// Middleware
	Auth        *auth.Middleware
	Enforcer    *auth.Enforcer
	RateLimiter *middleware.TokenBucketLimiter
	CORS        *middleware.CORSConfig
	Logging     middleware.LoggingConfig
	Recorder    middleware.HTTPRecorder

	// Infrastructure
	Logger  logging.Logger
	Metrics http.Handler
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// Health and metrics endpoints are public; everything under /api/v1 is
// authenticated, rate limited and requires at least read access.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger.Named("http"), cfg.Recorder, cfg.Logging))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Use(cfg.Auth.Handler)
		}
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.Enforcer != nil {
			api.Use(cfg.Enforcer.RequirePermission(user.PermRead))
		}

		if cfg.SessionHandler != nil {
			api.Get("/me", cfg.SessionHandler.Me)
		}
		registerCatalogRoutes(api, cfg.CatalogHandler)
		registerDashboardRoutes(api, cfg.DashboardHandler, cfg.Enforcer)
		registerBlockerRoutes(api, cfg.BlockerHandler)
		registerEscalationRoutes(api, cfg.EscalationHandler)
		registerCommentRoutes(api, cfg.CommentHandler)
	})

	return r
}

// registerCatalogRoutes mounts markets, products and coverage. Write
// permissions are checked by the catalog service itself.
func registerCatalogRoutes(r chi.Router, h *handlers.CatalogHandler) {
	if h == nil {
		return
	}
	r.Get("/markets", h.ListMarkets)
	r.Post("/markets/import", h.ImportMarkets)
	r.Post("/markets/bulk-delete", h.BulkDeleteMarkets)
	r.Get("/markets/{id}/ancestors", h.Ancestors)
	r.Get("/markets/{id}/cities", h.Cities)

	r.Get("/products", h.ListProducts)
	r.Post("/products", h.CreateProduct)
	r.Get("/products/{id}", h.GetProduct)
	r.Put("/products/{id}", h.UpdateProduct)

	r.Get("/coverage", h.ListCoverage)
	r.Put("/coverage", h.PutCoverage)
}

func registerDashboardRoutes(r chi.Router, h *handlers.DashboardHandler, enforcer *auth.Enforcer) {
	if h == nil {
		return
	}
	r.Get("/dashboard/heatmap", h.Heatmap)
	r.Get("/radar", h.Radar)
	r.Get("/snapshots", h.ListSnapshots)
	r.Post("/snapshots", h.ExportSnapshot)

	// A forced reload hits every repository, so viewers may not trigger it.
	if enforcer != nil {
		r.With(enforcer.RequireRole(user.RoleEditor)).Post("/dashboard/refresh", h.Refresh)
	} else {
		r.Post("/dashboard/refresh", h.Refresh)
	}
}

func registerBlockerRoutes(r chi.Router, h *handlers.BlockerHandler) {
	if h == nil {
		return
	}
	r.Get("/blockers", h.List)
	r.Post("/blockers", h.Create)
	r.Patch("/blockers", h.BulkUpdate)
	r.Post("/blockers/{id}/resolve", h.Resolve)
	r.Get("/products/{id}/blocker-summary", h.Summary)
}

func registerEscalationRoutes(r chi.Router, h *handlers.EscalationHandler) {
	if h == nil {
		return
	}
	r.Get("/escalations", h.List)
	r.Post("/escalations", h.Raise)
	r.Get("/escalations/{id}", h.Get)
	r.Post("/escalations/{id}/status", h.ChangeStatus)
	r.Get("/escalations/{id}/history", h.History)
}

func registerCommentRoutes(r chi.Router, h *handlers.CommentHandler) {
	if h == nil {
		return
	}
	r.Get("/comments", h.List)
	r.Post("/comments", h.Ask)
	r.Get("/comments/{id}", h.Get)
	r.Post("/comments/{id}/answer", h.Answer)
}
