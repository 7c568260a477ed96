// Package service implements the tenant lifecycle: creation with schema
// provisioning, activation state changes, plan changes, and destructive
// deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"praxis/internal/sentinel"
	"praxis/internal/tenant/cache"
	"praxis/internal/tenant/events"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/models"
	"praxis/internal/tenant/namespace"
	"praxis/internal/tenant/registry"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
)

// Provisioner is the schema management surface the service needs.
type Provisioner interface {
	EnsureNamespace(ctx context.Context, ns string) error
	DropNamespace(ctx context.Context, ns string) error
}

// TenantService coordinates the catalog, the schema provisioner, the
// provisioned-state cache and lifecycle eventing.
type TenantService struct {
	store       registry.Store
	provisioner Provisioner
	cache       cache.ProvisionCache
	events      *events.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures the TenantService.
type Option func(*TenantService)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TenantService) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TenantService) {
		s.metrics = m
	}
}

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(p *events.Publisher) Option {
	return func(s *TenantService) {
		s.events = p
	}
}

// WithCache sets the provisioned-state cache to invalidate on
// deactivation and deletion.
func WithCache(c cache.ProvisionCache) Option {
	return func(s *TenantService) {
		s.cache = c
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TenantService) {
		s.now = now
	}
}

// New creates a TenantService.
func New(store registry.Store, p Provisioner, opts ...Option) *TenantService {
	s := &TenantService{
		store:       store,
		provisioner: p,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateTenant registers a tenant and provisions its schema. The catalog
// row and the schema stand or fall together: if provisioning fails, the
// row is rolled back and the half-built schema dropped, so a failed
// creation leaves nothing behind.
func (s *TenantService) CreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)

	tenantID := id.TenantID(uuid.New())
	ns := namespace.ForTenant(tenantID)
	tenant, err := models.NewTenant(tenantID, name, ns, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("tenant name %q is taken", name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tenant registration failed")
	}

	if err := s.provisioner.EnsureNamespace(ctx, ns); err != nil {
		s.rollbackCreate(ctx, tenant)
		return nil, dErrors.Wrap(err, dErrors.CodeProvisioningFailed,
			fmt.Sprintf("provisioning schema for tenant %s failed", tenantID))
	}

	s.metrics.TenantCreated()
	s.events.TenantCreated(ctx, models.TenantCreated{TenantID: tenantID, Namespace: ns})
	s.logger.Info("tenant created", "tenant_id", tenantID.String(), "namespace", ns, "name", name)
	return tenant, nil
}

// rollbackCreate undoes a registration whose schema never materialized.
// Best effort on both sides; leftovers are repaired by the next admin sweep.
func (s *TenantService) rollbackCreate(ctx context.Context, tenant *models.Tenant) {
	if err := s.provisioner.DropNamespace(ctx, tenant.Namespace); err != nil {
		s.logger.Error("rollback schema drop failed",
			"tenant_id", tenant.ID.String(), "namespace", tenant.Namespace, "error", err)
	}
	if err := s.store.Delete(ctx, tenant.ID); err != nil {
		s.logger.Error("rollback catalog delete failed",
			"tenant_id", tenant.ID.String(), "error", err)
	}
}

// GetTenant fetches a tenant by ID.
func (s *TenantService) GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}
	return tenant, nil
}

// GetTenantByName fetches a tenant by its case-insensitive name.
func (s *TenantService) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	tenant, err := s.store.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("tenant %q not found", name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tenant lookup failed")
	}
	return tenant, nil
}

// DeactivateTenant suspends all data access for the tenant. The schema and
// its data are untouched; resolution fails closed until reactivation.
func (s *TenantService) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}
	if err := tenant.Deactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, tenant); err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, tenant.Namespace)
	}
	s.metrics.TenantDeactivated()
	s.events.TenantDeactivated(ctx, models.TenantDeactivated{TenantID: tenantID})
	s.logger.Info("tenant deactivated", "tenant_id", tenantID.String())
	return tenant, nil
}

// ReactivateTenant restores data access for a suspended tenant.
func (s *TenantService) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}
	if err := tenant.Reactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, tenant); err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}

	s.events.TenantReactivated(ctx, models.TenantReactivated{TenantID: tenantID})
	s.logger.Info("tenant reactivated", "tenant_id", tenantID.String())
	return tenant, nil
}

// UpdatePlan changes the tenant's plan tier and quotas.
func (s *TenantService) UpdatePlan(ctx context.Context, tenantID id.TenantID, plan models.PlanTier, maxUsers, maxStorageMB int) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}
	if err := tenant.ChangePlan(plan, maxUsers, maxStorageMB, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, tenant); err != nil {
		return nil, wrapLookupErr(err, tenantID)
	}

	s.logger.Info("tenant plan updated",
		"tenant_id", tenantID.String(), "plan", string(plan), "max_users", maxUsers, "max_storage_mb", maxStorageMB)
	return tenant, nil
}

// DeleteTenant irreversibly removes the tenant: schema first, then the
// catalog row. Ordering matters; a failure between the two leaves a
// resolvable tenant without data rather than an orphaned schema, and a
// retry of the deletion completes the cleanup.
func (s *TenantService) DeleteTenant(ctx context.Context, tenantID id.TenantID) error {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return wrapLookupErr(err, tenantID)
	}

	if err := s.provisioner.DropNamespace(ctx, tenant.Namespace); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, tenant.Namespace)
	}

	if err := s.store.Delete(ctx, tenantID); err != nil {
		return wrapLookupErr(err, tenantID)
	}

	s.metrics.TenantDeleted()
	s.events.TenantDeleted(ctx, models.TenantDeleted{TenantID: tenantID, Namespace: tenant.Namespace})
	s.logger.Info("tenant deleted", "tenant_id", tenantID.String(), "namespace", tenant.Namespace)
	return nil
}

func wrapLookupErr(err error, tenantID id.TenantID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("tenant %s not found", tenantID))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant lookup failed")
}
