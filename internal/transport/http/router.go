// Package httptransport assembles the HTTP surface: health probes, metrics,
// the admin tenant API, and the tenant-scoped record API behind the
// authentication and tenant gate middleware.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"praxis/internal/platform/health"
	"praxis/internal/platform/middleware/tenantgate"
	"praxis/internal/tenant/handler"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/registry"
	"praxis/pkg/platform/middleware/admin"
	"praxis/pkg/platform/middleware/auth"
	"praxis/pkg/platform/middleware/request"
)

// RouterConfig carries the dependencies the router wires together.
type RouterConfig struct {
	Logger        *slog.Logger
	AdminToken    string
	JWTSigningKey []byte
	Resolver      registry.Resolver
	Factory       tenantgate.GatewayFactory
	TenantHandler *handler.Handler
	Health        *health.Handler
	Metrics       *metrics.Metrics
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Timeout(30 * time.Second))

	cfg.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Admin surface: token gated, global scope.
	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		r.Use(request.ContentTypeJSON)
		r.Mount("/tenants", cfg.TenantHandler.Routes())
	})

	// Tenant surface: authenticated, every request resolved and bound to
	// its tenant schema before any handler runs.
	records := NewRecordsHandler(cfg.Logger)
	r.Route("/records", func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.JWTSigningKey, cfg.Logger))
		r.Use(tenantgate.RequireTenant(cfg.Resolver, cfg.Factory, cfg.Logger, cfg.Metrics))
		r.Use(request.ContentTypeJSON)
		r.Mount("/", records.Routes())
	})

	return r
}
