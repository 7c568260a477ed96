package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/tenant/cache"
	"praxis/internal/tenant/models"
	"praxis/internal/tenant/registry"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
)

// fakeProvisioner records calls and can be told to fail.
type fakeProvisioner struct {
	mu         sync.Mutex
	ensured    []string
	dropped    []string
	ensureErr  error
	dropErr    error
}

func (f *fakeProvisioner) EnsureNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, ns)
	return nil
}

func (f *fakeProvisioner) DropNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropErr != nil {
		return f.dropErr
	}
	f.dropped = append(f.dropped, ns)
	return nil
}

func newService(t *testing.T, prov *fakeProvisioner) (*TenantService, *registry.InMemory) {
	t.Helper()
	store := registry.NewInMemory()
	svc := New(store, prov, WithCache(cache.NewMemory(time.Minute)))
	return svc, store
}

func TestCreateTenant_ProvisionsSchema(t *testing.T) {
	prov := &fakeProvisioner{}
	svc, store := newService(t, prov)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "  Harrison & Cole LLP  ")
	require.NoError(t, err)

	assert.Equal(t, "Harrison & Cole LLP", tenant.Name)
	assert.Equal(t, models.TenantStatusActive, tenant.Status)
	assert.Equal(t, models.PlanTierStandard, tenant.Plan)
	require.Len(t, prov.ensured, 1)
	assert.Equal(t, tenant.Namespace, prov.ensured[0])

	stored, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.Namespace, stored.Namespace)
}

func TestCreateTenant_DuplicateNameConflicts(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, "Duplicate")
	require.NoError(t, err)

	_, err = svc.CreateTenant(ctx, "duplicate")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateTenant_EmptyNameRejected(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})

	_, err := svc.CreateTenant(context.Background(), "   ")
	require.Error(t, err)
}

func TestCreateTenant_RollsBackWhenProvisioningFails(t *testing.T) {
	prov := &fakeProvisioner{ensureErr: errors.New("disk full")}
	svc, store := newService(t, prov)
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, "Doomed Firm")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProvisioningFailed))

	// The catalog row is gone and the half-built schema was dropped.
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, prov.dropped, 1)

	// The name is free for a retry.
	prov.ensureErr = nil
	_, err = svc.CreateTenant(ctx, "Doomed Firm")
	require.NoError(t, err)
}

func TestDeactivateThenReactivate(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "Cycling Firm")
	require.NoError(t, err)

	deactivated, err := svc.DeactivateTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusInactive, deactivated.Status)

	// Deactivating twice violates the state machine.
	_, err = svc.DeactivateTenant(ctx, tenant.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	reactivated, err := svc.ReactivateTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusActive, reactivated.Status)
}

func TestDeactivateTenant_UnknownTenant(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})

	_, err := svc.DeactivateTenant(context.Background(), id.TenantID(uuid.New()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdatePlan(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "Growing Firm")
	require.NoError(t, err)

	updated, err := svc.UpdatePlan(ctx, tenant.ID, models.PlanTierPro, 50, 10240)
	require.NoError(t, err)
	assert.Equal(t, models.PlanTierPro, updated.Plan)
	assert.Equal(t, 50, updated.MaxUsers)

	_, err = svc.UpdatePlan(ctx, tenant.ID, models.PlanTier("platinum"), 50, 10240)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDeleteTenant_DropsSchemaBeforeCatalogRow(t *testing.T) {
	prov := &fakeProvisioner{}
	svc, store := newService(t, prov)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "Departing Firm")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTenant(ctx, tenant.ID))

	assert.Equal(t, []string{tenant.Namespace}, prov.dropped)
	_, err = store.FindByID(ctx, tenant.ID)
	assert.Error(t, err)
}

func TestDeleteTenant_SchemaDropFailureKeepsCatalogRow(t *testing.T) {
	prov := &fakeProvisioner{}
	svc, store := newService(t, prov)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "Sticky Firm")
	require.NoError(t, err)

	prov.dropErr = errors.New("lock timeout")
	require.Error(t, svc.DeleteTenant(ctx, tenant.ID))

	// Row survives so the deletion can be retried.
	_, err = store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)

	prov.dropErr = nil
	require.NoError(t, svc.DeleteTenant(ctx, tenant.ID))
}

func TestGetTenantByName(t *testing.T) {
	svc, _ := newService(t, &fakeProvisioner{})
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, "Named Firm")
	require.NoError(t, err)

	found, err := svc.GetTenantByName(ctx, "named firm")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	_, err = svc.GetTenantByName(ctx, "No Such Firm")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
