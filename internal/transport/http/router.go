// Package httptransport assembles the HTTP surface. It is a thin layer: route
// wiring and middleware only, with all behavior delegated to the domain
// handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gatewayhandler "proofgate/internal/gateway/handler"
	issuancehandler "proofgate/internal/issuance/handler"
	registryhandler "proofgate/internal/registry/handler"
	"proofgate/pkg/platform/httputil"
	"proofgate/pkg/platform/middleware/auth"
	"proofgate/pkg/platform/middleware/ratelimit"
	"proofgate/pkg/platform/middleware/requestid"
	"proofgate/pkg/platform/middleware/requesttime"
)

// HealthChecker reports whether a named backing component is reachable.
type HealthChecker func(ctx context.Context) error

// Config carries everything the router mounts.
type Config struct {
	Registry  *registryhandler.Handler
	Gateway   *gatewayhandler.Handler
	Issuance  *issuancehandler.Handler
	Extractor auth.AddressExtractor
	Limiter   ratelimit.Store
	Health    map[string]HealthChecker
	Logger    *slog.Logger
}

// Per-caller budget on the authenticated routes. Claims do real work
// (verification, a transaction, event writes), so the window is tight.
const (
	authedRequestLimit  = 30
	authedRequestWindow = time.Minute
)

// NewRouter wires all endpoints. Registry and receipt reads are public;
// claims and configuration require a bearer token.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		cfg.Registry.Register(r)
		cfg.Gateway.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Extractor, cfg.Logger))
		if cfg.Limiter != nil {
			r.Use(ratelimit.Middleware(cfg.Limiter, authedRequestLimit, authedRequestWindow, ratelimit.ByCaller, cfg.Logger))
		}
		cfg.Issuance.Register(r)
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		overall := "ok"
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				components[name] = "down"
				status = http.StatusServiceUnavailable
				overall = "degraded"
				continue
			}
			components[name] = "up"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":     overall,
			"components": components,
		})
	}
}
