package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/tenant/namespace"
)

func TestTableNames_CoversFullLayout(t *testing.T) {
	names := TableNames()
	assert.ElementsMatch(t, []string{
		"clients", "categories", "projects", "tasks",
		"transactions", "invoices", "publications", "notifications",
	}, names)
}

func TestIsKnownTable(t *testing.T) {
	assert.True(t, IsKnownTable("clients"))
	assert.True(t, IsKnownTable("invoices"))
	assert.False(t, IsKnownTable("tenants"))
	assert.False(t, IsKnownTable("pg_catalog"))
	assert.False(t, IsKnownTable("clients; DROP TABLE clients"))
	assert.False(t, IsKnownTable(""))
}

func TestCreateStatement_IncludesAuditColumns(t *testing.T) {
	ns := "t_0123456789abcdef0123456789abcdef"
	require.NoError(t, namespace.Validate(ns))

	for _, tbl := range tables {
		stmt := tbl.CreateStatement(ns)

		assert.True(t, strings.HasPrefix(stmt, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (", ns, tbl.Name)), stmt)
		assert.Contains(t, stmt, "id uuid PRIMARY KEY DEFAULT gen_random_uuid()")
		assert.Contains(t, stmt, "created_by uuid")
		assert.Contains(t, stmt, "is_active boolean NOT NULL DEFAULT true")
		assert.Contains(t, stmt, "created_at timestamptz NOT NULL DEFAULT now()")
		assert.Contains(t, stmt, "updated_at timestamptz NOT NULL DEFAULT now()")

		// One statement per table, no batching.
		assert.NotContains(t, stmt, ";")
	}
}

func TestIndexStatements_AreSchemaQualified(t *testing.T) {
	ns := "t_0123456789abcdef0123456789abcdef"

	for _, tbl := range tables {
		for _, stmt := range tbl.IndexStatements(ns) {
			assert.True(t, strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS idx_"+tbl.Name), stmt)
			assert.Contains(t, stmt, fmt.Sprintf(" ON %s.%s ", ns, tbl.Name))
			assert.NotContains(t, stmt, ";")
		}
	}
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"duplicate schema", &pgconn.PgError{Code: "42P06"}, true},
		{"duplicate table", &pgconn.PgError{Code: "42P07"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"wrapped duplicate", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "42P07"}), true},
		{"plain error", errors.New("connection refused"), false},
		{"nil-ish", errors.New(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAlreadyExists(tt.err))
		})
	}
}

func TestEnsureNamespace_RejectsInvalidNamespaceBeforeAnySQL(t *testing.T) {
	// A nil DB proves no statement is attempted for a rejected name.
	p := New(nil)

	for _, ns := range []string{
		"",
		"public",
		"t_abc; DROP SCHEMA public CASCADE",
		"T_0123456789ABCDEF0123456789ABCDEF",
	} {
		err := p.EnsureNamespace(context.Background(), ns)
		require.Error(t, err, ns)
	}
}

func TestDropNamespace_RejectsInvalidNamespaceBeforeAnySQL(t *testing.T) {
	p := New(nil)

	err := p.DropNamespace(context.Background(), "pg_temp")
	require.Error(t, err)
}
