//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"praxis/internal/tenant/models"
	"praxis/internal/tenant/namespace"
	"praxis/migrations"
	id "praxis/pkg/domain"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// global catalog migrations applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container with migrations applied.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("praxis_test"),
		postgres.WithUsername("praxis"),
		postgres.WithPassword("praxis_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	if err := pc.runMigrations(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// No t.Cleanup here: the container is shared via the singleton Manager
	// and Ryuk terminates it when the test process exits.

	return pc
}

// runMigrations executes all *.up.sql migrations from the embedded migrations.FS.
func (p *PostgresContainer) runMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		if _, err := p.DB.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", file, err)
		}
	}

	return nil
}

// TruncateTables clears all data from the specified catalog tables.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// DropTenantSchemas drops every t_ schema left behind by earlier tests.
// Use together with TruncateTables("tenants") for full isolation.
func (p *PostgresContainer) DropTenantSchemas(ctx context.Context) error {
	rows, err := p.DB.QueryContext(ctx,
		"SELECT schema_name FROM information_schema.schemata WHERE schema_name LIKE 't\\_%'")
	if err != nil {
		return fmt.Errorf("list tenant schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ns := range schemas {
		if err := namespace.Validate(ns); err != nil {
			continue
		}
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", ns)); err != nil {
			return fmt.Errorf("drop schema %s: %w", ns, err)
		}
	}
	return nil
}

// Reset clears the catalog and all tenant schemas between tests.
func (p *PostgresContainer) Reset(ctx context.Context) error {
	if err := p.DropTenantSchemas(ctx); err != nil {
		return err
	}
	return p.TruncateTables(ctx, "tenants")
}

// Exec runs a SQL statement and returns the result.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}

// Query runs a SQL query and returns rows.
func (p *PostgresContainer) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.DB.QueryContext(ctx, query, args...)
}

// QueryRow runs a SQL query expected to return a single row.
func (p *PostgresContainer) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DB.QueryRowContext(ctx, query, args...)
}

// CreateTestTenant inserts an active catalog tenant and returns its ID.
// It does not provision the tenant schema; tests exercise that themselves.
func (p *PostgresContainer) CreateTestTenant(ctx context.Context, t testing.TB) id.TenantID {
	t.Helper()
	tenantID := id.TenantID(uuid.New())
	ns := namespace.ForTenant(tenantID)
	_, err := p.Exec(ctx, `
		INSERT INTO tenants (id, name, namespace, plan, max_users, max_storage_mb, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', NOW(), NOW())
	`, uuid.UUID(tenantID), "Test Firm "+uuid.NewString(), ns,
		string(models.PlanTierStandard), models.DefaultMaxUsers, models.DefaultMaxStorageMB)
	if err != nil {
		t.Fatalf("CreateTestTenant: %v", err)
	}
	return tenantID
}

// SchemaExists reports whether the given schema is present.
func (p *PostgresContainer) SchemaExists(ctx context.Context, t testing.TB, ns string) bool {
	t.Helper()
	var one int
	err := p.QueryRow(ctx,
		"SELECT 1 FROM information_schema.schemata WHERE schema_name = $1", ns).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("SchemaExists: %v", err)
	}
	return true
}

// TableCount returns how many tables the given schema contains.
func (p *PostgresContainer) TableCount(ctx context.Context, t testing.TB, ns string) int {
	t.Helper()
	var n int
	err := p.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = $1", ns).Scan(&n)
	if err != nil {
		t.Fatalf("TableCount: %v", err)
	}
	return n
}
