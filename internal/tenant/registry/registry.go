// Package registry maintains the global tenant directory: the only table that
// lives outside tenant namespaces. It maps a tenant ID to its physical schema
// name and active flag, and backs the administrative lifecycle operations.
package registry

import (
	"context"

	"praxis/internal/tenant/models"
	id "praxis/pkg/domain"
)

// Resolution is the read-path answer for one tenant: which schema its data
// lives in, and whether requests on its behalf may proceed.
type Resolution struct {
	Namespace string
	Active    bool
}

// Resolver answers tenant lookups on the request path.
//
// Resolve fails with sentinel.ErrNotFound for unknown tenants and
// sentinel.ErrTenantInactive for suspended ones. Callers must treat both as
// fail-closed denials; neither returns a namespace.
type Resolver interface {
	Resolve(ctx context.Context, tenantID id.TenantID) (Resolution, error)
}

// Store persists tenant records. Mutations are reserved for the
// administrative lifecycle service.
type Store interface {
	Resolver

	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, tenantID id.TenantID) error
	ListAll(ctx context.Context) ([]*models.Tenant, error)
	Count(ctx context.Context) (int, error)
}
