// Package httptransport assembles the public HTTP surface: middleware order,
// route groups and their guards.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"greenlight/pkg/platform/middleware/admin"
	"greenlight/pkg/platform/middleware/metadata"
	"greenlight/pkg/platform/middleware/request"
	"greenlight/pkg/platform/middleware/requesttime"
)

// RouteRegistrar mounts a handler's routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// Config carries the handlers and guards. Nil handlers are not mounted.
type Config struct {
	Validation RouteRegistrar
	Admin      RouteRegistrar
	Health     RouteRegistrar
	Metrics    http.Handler

	// Authenticate guards the validation routes.
	Authenticate func(http.Handler) http.Handler
	// RateLimit applies to the validation routes only.
	RateLimit      func(http.Handler) http.Handler
	AdminToken     string
	Metadata       metadata.Config
	RequestMetrics *request.Metrics
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(cfg.Metadata).Handler)
	r.Use(request.Logger(logger))
	r.Use(request.Recovery(logger))
	r.Use(request.Instrument(cfg.RequestMetrics))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if cfg.Validation != nil {
		r.Group(func(g chi.Router) {
			if cfg.RateLimit != nil {
				g.Use(cfg.RateLimit)
			}
			if cfg.RequestTimeout > 0 {
				g.Use(timeout(cfg.RequestTimeout))
			}
			g.Use(request.ContentTypeJSON)
			if cfg.Authenticate != nil {
				g.Use(cfg.Authenticate)
			}
			cfg.Validation.Register(g)
		})
	}

	if cfg.Admin != nil {
		r.Group(func(g chi.Router) {
			g.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			cfg.Admin.Register(g)
		})
	}

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"upstream_timeout","error_description":"request timed out"}`)
	}
}
