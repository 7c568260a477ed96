package provisioner

import (
	"fmt"
	"sort"
)

// Table describes one table of the per-tenant schema layout.
//
// Columns holds only the domain columns. Every table additionally carries the
// same audit columns (created_by, is_active, created_at, updated_at) and a
// UUID primary key, appended by CreateStatement. Each index entry is the
// parenthesized column list of one secondary index.
type Table struct {
	Name    string
	Columns []string
	Indexes []string
}

// auditColumns are present on every tenant table in identical form. The
// gateway helpers rely on is_active for soft deletes and on updated_at for
// update stamping.
var auditColumns = []string{
	"created_by uuid",
	"is_active boolean NOT NULL DEFAULT true",
	"created_at timestamptz NOT NULL DEFAULT now()",
	"updated_at timestamptz NOT NULL DEFAULT now()",
}

// tables is the canonical per-tenant layout. Order matters only for
// readability of the generated DDL; there are no cross-table constraints
// because referential integrity is enforced at the application layer.
var tables = []Table{
	{
		Name: "clients",
		Columns: []string{
			"name text NOT NULL",
			"email text",
			"phone text",
			"company text",
			"address jsonb NOT NULL DEFAULT '{}'::jsonb",
			"contacts jsonb NOT NULL DEFAULT '[]'::jsonb",
			"tags jsonb NOT NULL DEFAULT '[]'::jsonb",
			"notes text",
		},
		Indexes: []string{"(name)", "(email)"},
	},
	{
		Name: "categories",
		Columns: []string{
			"name text NOT NULL",
			"kind text",
			"description text",
		},
		Indexes: []string{"(name)"},
	},
	{
		Name: "projects",
		Columns: []string{
			"client_id uuid",
			"category_id uuid",
			"title text NOT NULL",
			"description text",
			"status text NOT NULL DEFAULT 'open'",
			"start_date date",
			"end_date date",
			"assigned_to jsonb NOT NULL DEFAULT '[]'::jsonb",
			"metadata jsonb NOT NULL DEFAULT '{}'::jsonb",
		},
		Indexes: []string{"(client_id)", "(status)", "(start_date)"},
	},
	{
		Name: "tasks",
		Columns: []string{
			"project_id uuid",
			"title text NOT NULL",
			"details text",
			"status text NOT NULL DEFAULT 'pending'",
			"priority text",
			"due_date date",
			"assigned_to jsonb NOT NULL DEFAULT '[]'::jsonb",
			"subtasks jsonb NOT NULL DEFAULT '[]'::jsonb",
			"tags jsonb NOT NULL DEFAULT '[]'::jsonb",
		},
		Indexes: []string{"(project_id)", "(status)", "(due_date)"},
	},
	{
		Name: "transactions",
		Columns: []string{
			"project_id uuid",
			"client_id uuid",
			"kind text NOT NULL",
			"amount numeric(14,2) NOT NULL DEFAULT 0",
			"currency text NOT NULL DEFAULT 'USD'",
			"transaction_date date",
			"description text",
			"metadata jsonb NOT NULL DEFAULT '{}'::jsonb",
		},
		Indexes: []string{"(project_id)", "(client_id)", "(transaction_date)"},
	},
	{
		Name: "invoices",
		Columns: []string{
			"client_id uuid",
			"project_id uuid",
			"number text",
			"amount numeric(14,2) NOT NULL DEFAULT 0",
			"status text NOT NULL DEFAULT 'draft'",
			"issue_date date",
			"due_date date",
			"items jsonb NOT NULL DEFAULT '[]'::jsonb",
			"metadata jsonb NOT NULL DEFAULT '{}'::jsonb",
		},
		Indexes: []string{"(client_id)", "(status)", "(due_date)"},
	},
	{
		Name: "publications",
		Columns: []string{
			"title text NOT NULL",
			"reference text",
			"court text",
			"publication_date date",
			"summary text",
			"tags jsonb NOT NULL DEFAULT '[]'::jsonb",
			"metadata jsonb NOT NULL DEFAULT '{}'::jsonb",
		},
		Indexes: []string{"(publication_date)"},
	},
	{
		Name: "notifications",
		Columns: []string{
			"user_id uuid",
			"title text NOT NULL",
			"body text",
			"kind text",
			"read_at timestamptz",
			"metadata jsonb NOT NULL DEFAULT '{}'::jsonb",
		},
		Indexes: []string{"(user_id)", "(read_at)"},
	},
}

var tableIndex = func() map[string]Table {
	m := make(map[string]Table, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return m
}()

// TableNames returns the sorted names of all tables every tenant schema must contain.
func TableNames() []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// IsKnownTable reports whether name is part of the tenant schema layout.
// The gateway helpers use this as the allow-list for table names arriving
// from request paths.
func IsKnownTable(name string) bool {
	_, ok := tableIndex[name]
	return ok
}

// CreateStatement renders the CREATE TABLE statement for this table inside
// the given schema. The namespace must already be validated by the caller;
// this function only assembles DDL text.
func (t Table) CreateStatement(ns string) string {
	cols := make([]string, 0, 1+len(t.Columns)+len(auditColumns))
	cols = append(cols, "id uuid PRIMARY KEY DEFAULT gen_random_uuid()")
	cols = append(cols, t.Columns...)
	cols = append(cols, auditColumns...)

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (", ns, t.Name)
	for i, c := range cols {
		if i > 0 {
			stmt += ", "
		}
		stmt += c
	}
	return stmt + ")"
}

// IndexStatements renders one CREATE INDEX statement per declared index.
// Index names are schema scoped, so the same name can exist in every
// tenant schema without collision.
func (t Table) IndexStatements(ns string) []string {
	stmts := make([]string, 0, len(t.Indexes))
	for i, cols := range t.Indexes {
		name := fmt.Sprintf("idx_%s_%d", t.Name, i)
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s.%s %s", name, ns, t.Name, cols))
	}
	return stmts
}
