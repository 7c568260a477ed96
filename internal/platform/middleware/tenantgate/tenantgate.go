// Package tenantgate is the chokepoint between authentication and tenant
// data access. It resolves the caller's tenant, fails closed on anything
// but an active tenant, and attaches a schema-bound gateway to the request
// context. Handlers behind the gate can only reach tenant data through
// that gateway.
//
// All denials produce the same opaque access_denied response. The real
// reason (unknown tenant, inactive tenant, missing tenant claim) is logged
// and counted, never returned, so callers cannot probe which tenants exist.
package tenantgate

import (
	"context"
	"log/slog"
	"net/http"

	"praxis/internal/tenant/gateway"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/registry"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
	"praxis/pkg/platform/httputil"
	"praxis/pkg/requestcontext"
)

type gatewayKey struct{}

// GatewayFactory builds a schema-bound gateway for a resolved tenant.
type GatewayFactory interface {
	ForTenant(ctx context.Context, tenantID id.TenantID, ns string) (*gateway.Gateway, error)
}

// Denial reasons used for logging and metrics only.
const (
	reasonNoPrincipal   = "no_principal"
	reasonMissingTenant = "missing_tenant"
	reasonResolution    = "resolution_failed"
)

// RequireTenant returns middleware enforcing tenant scope on every request.
//
// Admin principals pass through without a gateway; they operate in global
// scope and never touch tenant schemas through this path. Everyone else
// must resolve to an active tenant or the request dies here.
func RequireTenant(resolver registry.Resolver, factory GatewayFactory, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, ok := requestcontext.PrincipalFrom(ctx)
			if !ok {
				deny(w, logger, m, reasonNoPrincipal, "", nil)
				return
			}

			if principal.Admin {
				next.ServeHTTP(w, r)
				return
			}

			if principal.TenantID.IsNil() {
				deny(w, logger, m, reasonMissingTenant, "", nil)
				return
			}

			res, err := resolver.Resolve(ctx, principal.TenantID)
			if err != nil {
				// Unknown, inactive and infrastructure failures all fail closed
				// with the identical response.
				deny(w, logger, m, reasonResolution, principal.TenantID.String(), err)
				return
			}

			gw, err := factory.ForTenant(ctx, principal.TenantID, res.Namespace)
			if err != nil {
				logger.Error("tenant gateway construction failed",
					"tenant_id", principal.TenantID.String(), "error", err)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithGateway(ctx, gw)))
		})
	}
}

func deny(w http.ResponseWriter, logger *slog.Logger, m *metrics.Metrics, reason, tenantID string, err error) {
	m.AccessDenied(reason)
	logger.Warn("tenant access denied", "reason", reason, "tenant_id", tenantID, "error", err)
	httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, ""))
}

// WithGateway stores the tenant gateway in the context.
func WithGateway(ctx context.Context, gw *gateway.Gateway) context.Context {
	return context.WithValue(ctx, gatewayKey{}, gw)
}

// GatewayFrom retrieves the tenant gateway attached by RequireTenant.
// The second return value is false for requests that bypassed the gate.
func GatewayFrom(ctx context.Context) (*gateway.Gateway, bool) {
	gw, ok := ctx.Value(gatewayKey{}).(*gateway.Gateway)
	return gw, ok
}
