package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/sentinel"
	"praxis/internal/tenant/models"
	"praxis/internal/tenant/namespace"
	id "praxis/pkg/domain"
)

func newStoredTenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tenantID := id.TenantID(uuid.New())
	tenant, err := models.NewTenant(tenantID, name, namespace.ForTenant(tenantID), time.Now())
	require.NoError(t, err)
	return tenant
}

func TestCreateIfNameAvailable_Success(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	tenant := newStoredTenant(t, "Harrison & Cole LLP")

	err := store.CreateIfNameAvailable(ctx, tenant)
	require.NoError(t, err)

	found, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.Name, found.Name)
	assert.Equal(t, tenant.Namespace, found.Namespace)
}

func TestCreateIfNameAvailable_DuplicateNameReturnsError(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.CreateIfNameAvailable(ctx, newStoredTenant(t, "Duplicate")))

	err := store.CreateIfNameAvailable(ctx, newStoredTenant(t, "Duplicate"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestCreateIfNameAvailable_CaseInsensitive(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.CreateIfNameAvailable(ctx, newStoredTenant(t, "MyFirm")))

	err := store.CreateIfNameAvailable(ctx, newStoredTenant(t, "MYFIRM"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestResolve_ActiveTenant(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	tenant := newStoredTenant(t, "Active Firm")
	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))

	res, err := store.Resolve(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, tenant.Namespace, res.Namespace)
	assert.NoError(t, namespace.Validate(res.Namespace))
}

func TestResolve_UnknownTenant(t *testing.T) {
	store := NewInMemory()

	res, err := store.Resolve(context.Background(), id.TenantID(uuid.New()))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Empty(t, res.Namespace)
}

func TestResolve_InactiveTenantFailsClosed(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	tenant := newStoredTenant(t, "Suspended Firm")
	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))

	require.NoError(t, tenant.Deactivate(time.Now()))
	require.NoError(t, store.Update(ctx, tenant))

	res, err := store.Resolve(ctx, tenant.ID)
	require.ErrorIs(t, err, sentinel.ErrTenantInactive)
	assert.Empty(t, res.Namespace)
}

func TestDelete_RemovesTenantAndFreesName(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	tenant := newStoredTenant(t, "Ephemeral")
	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))
	require.NoError(t, store.Delete(ctx, tenant.ID))

	_, err := store.FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Name is available again after deletion.
	require.NoError(t, store.CreateIfNameAvailable(ctx, newStoredTenant(t, "Ephemeral")))
}

func TestFindByName_CaseInsensitive(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	tenant := newStoredTenant(t, "CaseSensitive")
	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))

	found, err := store.FindByName(ctx, "casesensitive")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	found, err = store.FindByName(ctx, "CASESENSITIVE")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)
}
