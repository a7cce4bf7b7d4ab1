// Package httpapi assembles the full HTTP surface: platform middleware,
// operational endpoints, and the team management routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	teamhandler "crew/internal/team/handler"

	"crew/internal/platform/metrics"
	"crew/internal/platform/middleware"
	"crew/pkg/platform/httputil"
)

// HealthChecker reports whether one dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects everything the router wires together.
type Deps struct {
	Teams       *teamhandler.Handler
	Auth        middleware.TokenValidator
	HTTPMetrics *metrics.HTTPMetrics
	Logger      *slog.Logger

	// Health maps a component name to its checker. Nil checkers are skipped
	// so memory-backed deployments report healthy with no dependencies.
	Health map[string]HealthChecker
}

// NewRouter wires all endpoints. Operational routes stay outside the
// authentication stack; everything else requires a valid bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Use(middleware.RequireAuth(deps.Auth, deps.Logger))
		deps.Teams.Register(r)
	})

	return r
}

func handleHealth(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checkers))
		for name, c := range checkers {
			if c == nil {
				continue
			}
			if err := c.Health(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httputil.WriteJSON(w, status, body)
	}
}
