package gateway

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"praxis/internal/tenant/provisioner"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
)

// columnPattern is the allow-list for column names arriving in request
// bodies. Anything else never reaches SQL text.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedColumns are managed by the data layer and cannot be set by callers.
var reservedColumns = map[string]bool{
	"id":         true,
	"is_active":  true,
	"created_at": true,
	"updated_at": true,
}

// Insert adds a record and returns it as stored, defaults applied.
func (g *Gateway) Insert(ctx context.Context, table string, fields map[string]any) (Record, error) {
	template, args, err := buildInsert(table, fields)
	if err != nil {
		return nil, err
	}
	return g.QueryOne(ctx, template, args...)
}

// Update modifies a live record and returns the updated row. Every update
// stamps updated_at. Returns nil when the record does not exist or was
// soft deleted.
func (g *Gateway) Update(ctx context.Context, table string, recordID id.RecordID, fields map[string]any) (Record, error) {
	template, args, err := buildUpdate(table, recordID, fields)
	if err != nil {
		return nil, err
	}
	return g.QueryOne(ctx, template, args...)
}

// SoftDelete deactivates a record. The row stays in place with
// is_active = false. Returns false when no live record matched.
func (g *Gateway) SoftDelete(ctx context.Context, table string, recordID id.RecordID) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	template := fmt.Sprintf(
		"UPDATE {{schema}}.%s SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true", table)
	affected, err := g.Exec(ctx, template, recordID.String())
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Get fetches one live record by ID. Returns nil when absent or soft deleted.
func (g *Gateway) Get(ctx context.Context, table string, recordID id.RecordID) (Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	template := fmt.Sprintf("SELECT * FROM {{schema}}.%s WHERE id = $1 AND is_active = true", table)
	return g.QueryOne(ctx, template, recordID.String())
}

// List returns all live records of a table, newest first.
func (g *Gateway) List(ctx context.Context, table string) ([]Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	template := fmt.Sprintf("SELECT * FROM {{schema}}.%s WHERE is_active = true ORDER BY created_at DESC", table)
	return g.Query(ctx, template)
}

// buildInsert assembles an INSERT ... RETURNING * template with cast-aware
// placeholders and the bind arguments in column order.
func buildInsert(table string, fields map[string]any) (string, []any, error) {
	if err := validateTable(table); err != nil {
		return "", nil, err
	}
	cols, err := orderedColumns(fields)
	if err != nil {
		return "", nil, err
	}
	if len(cols) == 0 {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "no fields to insert")
	}

	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		kind := castFor(col, fields[col])
		value, err := encodeValue(kind, col, fields[col])
		if err != nil {
			return "", nil, err
		}
		placeholders = append(placeholders, placeholderFor(kind, i+1))
		args = append(args, value)
	}

	template := fmt.Sprintf("INSERT INTO {{schema}}.%s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return template, args, nil
}

// buildUpdate assembles an UPDATE ... RETURNING * template restricted to
// live rows, with updated_at stamped server side.
func buildUpdate(table string, recordID id.RecordID, fields map[string]any) (string, []any, error) {
	if err := validateTable(table); err != nil {
		return "", nil, err
	}
	cols, err := orderedColumns(fields)
	if err != nil {
		return "", nil, err
	}
	if len(cols) == 0 {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "no fields to update")
	}

	assignments := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		kind := castFor(col, fields[col])
		value, err := encodeValue(kind, col, fields[col])
		if err != nil {
			return "", nil, err
		}
		assignments = append(assignments, fmt.Sprintf("%s = %s", col, placeholderFor(kind, i+1)))
		args = append(args, value)
	}
	assignments = append(assignments, "updated_at = now()")
	args = append(args, recordID.String())

	template := fmt.Sprintf("UPDATE {{schema}}.%s SET %s WHERE id = $%d AND is_active = true RETURNING *",
		table, strings.Join(assignments, ", "), len(cols)+1)
	return template, args, nil
}

// validateTable rejects any table outside the provisioned layout.
func validateTable(table string) error {
	if !provisioner.IsKnownTable(table) {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown table %q", table))
	}
	return nil
}

// orderedColumns validates field names and returns them sorted, so
// generated SQL is deterministic regardless of map iteration order.
func orderedColumns(fields map[string]any) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !columnPattern.MatchString(col) || len(col) > 63 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid column name %q", col))
		}
		if reservedColumns[col] {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("column %s is managed and cannot be set", col))
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}
