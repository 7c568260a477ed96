package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"praxis/internal/sentinel"
	"praxis/internal/tenant/models"
	id "praxis/pkg/domain"
)

// PostgresStore persists tenants in the global (non-tenant) area of the database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant registry.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Resolve looks up the namespace and active flag for a tenant.
// Read-only; never touches tenant schemas.
func (s *PostgresStore) Resolve(ctx context.Context, tenantID id.TenantID) (Resolution, error) {
	query := `
		SELECT namespace, status
		FROM tenants
		WHERE id = $1
	`
	var namespace, status string
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID)).Scan(&namespace, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resolution{}, sentinel.ErrNotFound
		}
		return Resolution{}, fmt.Errorf("resolve tenant: %w", err)
	}
	if models.TenantStatus(status) != models.TenantStatusActive {
		return Resolution{}, sentinel.ErrTenantInactive
	}
	return Resolution{Namespace: namespace, Active: true}, nil
}

// CreateIfNameAvailable atomically creates the tenant if the name is not already taken (case-insensitive).
func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return fmt.Errorf("tenant is required")
	}
	query := `
		INSERT INTO tenants (id, name, namespace, plan, max_users, max_storage_mb, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(tenant.ID),
		tenant.Name,
		tenant.Namespace,
		string(tenant.Plan),
		tenant.MaxUsers,
		tenant.MaxStorageMB,
		string(tenant.Status),
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	query := selectTenant + ` WHERE id = $1`
	tenant, err := scanTenant(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return tenant, nil
}

// FindByName retrieves a tenant by name (case-insensitive).
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	query := selectTenant + ` WHERE lower(name) = lower($1)`
	tenant, err := scanTenant(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	return tenant, nil
}

// Update updates an existing tenant's mutable fields.
func (s *PostgresStore) Update(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return fmt.Errorf("tenant is required")
	}
	query := `
		UPDATE tenants
		SET name = $2, plan = $3, max_users = $4, max_storage_mb = $5, status = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(tenant.ID),
		tenant.Name,
		string(tenant.Plan),
		tenant.MaxUsers,
		tenant.MaxStorageMB,
		string(tenant.Status),
		tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a tenant row from the registry. The caller is responsible for
// dropping the physical namespace first; the row referencing it goes last so a
// failed drop never orphans a schema.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, uuid.UUID(tenantID))
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tenant rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListAll returns every tenant ordered by creation time. Used by the
// operational healing sweep; the request path never lists tenants.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, selectTenant+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var t models.Tenant
		var tenantID uuid.UUID
		var plan, status string
		if err := rows.Scan(&tenantID, &t.Name, &t.Namespace, &plan, &t.MaxUsers, &t.MaxStorageMB, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		t.ID = id.TenantID(tenantID)
		t.Plan = models.PlanTier(plan)
		t.Status = models.TenantStatus(status)
		tenants = append(tenants, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// Count returns the total number of tenants.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return count, nil
}

const selectTenant = `
	SELECT id, name, namespace, plan, max_users, max_storage_mb, status, created_at, updated_at
	FROM tenants`

func scanTenant(row *sql.Row) (*models.Tenant, error) {
	var t models.Tenant
	var tenantID uuid.UUID
	var plan, status string
	if err := row.Scan(&tenantID, &t.Name, &t.Namespace, &plan, &t.MaxUsers, &t.MaxStorageMB, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ID = id.TenantID(tenantID)
	t.Plan = models.PlanTier(plan)
	t.Status = models.TenantStatus(status)
	return &t, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
