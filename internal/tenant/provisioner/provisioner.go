// Package provisioner creates and repairs per-tenant PostgreSQL schemas.
//
// Provisioning is idempotent and self-healing: every run checks which parts
// of the layout already exist and creates only what is missing, so a tenant
// whose schema drifted (a dropped table, an interrupted earlier run) is
// repaired on its next access. All existence checks go through parameterized
// information_schema queries; namespace names are interpolated into DDL only
// after passing namespace.Validate.
package provisioner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/singleflight"

	"praxis/internal/platform/tracer"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/namespace"
	dErrors "praxis/pkg/domain-errors"
)

// DB is the database surface the provisioner needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Provisioner creates, verifies and drops tenant schemas.
type Provisioner struct {
	db      DB
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	group   singleflight.Group
}

// Option configures the Provisioner.
type Option func(*Provisioner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithTracer sets the tracer for provisioning spans.
func WithTracer(t tracer.Tracer) Option {
	return func(p *Provisioner) {
		p.tracer = t
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provisioner) {
		p.metrics = m
	}
}

// New creates a Provisioner backed by the given database.
func New(db DB, opts ...Option) *Provisioner {
	p := &Provisioner{db: db}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = tracer.NewNoop()
	}
	return p
}

// EnsureNamespace guarantees that the schema ns exists and contains the full
// table layout. It is safe to call on every tenant access: a fully
// provisioned namespace costs one existence check and one table listing,
// with no DDL issued.
//
// Concurrent calls for the same namespace are collapsed into a single run.
// Races that slip past the collapse (separate processes) are absorbed by
// IF NOT EXISTS and by treating duplicate-object errors as success.
func (p *Provisioner) EnsureNamespace(ctx context.Context, ns string) error {
	if err := namespace.Validate(ns); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidNamespace, "namespace rejected")
	}

	_, err, _ := p.group.Do(ns, func() (any, error) {
		return nil, p.ensure(ctx, ns)
	})
	return err
}

func (p *Provisioner) ensure(ctx context.Context, ns string) error {
	ctx, span := p.tracer.Start(ctx, tracer.SpanEnsureNamespace, tracer.String(tracer.AttrNamespace, ns))
	start := time.Now()
	var err error
	defer func() { span.End(err) }()

	exists, err := p.schemaExists(ctx, ns)
	if err != nil {
		p.metrics.ProvisionRun(metrics.OutcomeFailed, time.Since(start))
		return p.provisionErr(ns, "schema existence check failed", err)
	}

	created := false
	if !exists {
		if err = p.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", ns)); err != nil {
			p.metrics.ProvisionRun(metrics.OutcomeFailed, time.Since(start))
			return p.provisionErr(ns, "schema creation failed", err)
		}
		created = true
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCreated, created))

	present, err := p.presentTables(ctx, ns)
	if err != nil {
		p.metrics.ProvisionRun(metrics.OutcomeFailed, time.Since(start))
		return p.provisionErr(ns, "table listing failed", err)
	}

	repaired := 0
	for _, t := range tables {
		if present[t.Name] {
			continue
		}
		if err = p.createTable(ctx, ns, t); err != nil {
			p.metrics.ProvisionRun(metrics.OutcomeFailed, time.Since(start))
			return p.provisionErr(ns, fmt.Sprintf("creating table %s failed", t.Name), err)
		}
		repaired++
	}
	span.SetAttributes(tracer.Int64(tracer.AttrRepaired, int64(repaired)))

	switch {
	case created:
		p.metrics.ProvisionRun(metrics.OutcomeCreated, time.Since(start))
		p.logger.Info("tenant schema provisioned", "namespace", ns, "tables", len(tables))
	case repaired > 0:
		p.metrics.ProvisionRun(metrics.OutcomeRepaired, time.Since(start))
		p.metrics.TablesRepaired(repaired)
		p.logger.Warn("tenant schema drift repaired", "namespace", ns, "tables_repaired", repaired)
	default:
		p.metrics.ProvisionRun(metrics.OutcomeVerified, time.Since(start))
	}
	return nil
}

// DropNamespace removes the schema and everything in it. Destructive and
// irreversible; callers gate this behind explicit tenant deletion.
func (p *Provisioner) DropNamespace(ctx context.Context, ns string) error {
	if err := namespace.Validate(ns); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidNamespace, "namespace rejected")
	}

	ctx, span := p.tracer.Start(ctx, tracer.SpanDropNamespace, tracer.String(tracer.AttrNamespace, ns))
	var err error
	defer func() { span.End(err) }()

	if _, err = p.db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", ns)); err != nil {
		return p.provisionErr(ns, "schema drop failed", err)
	}
	p.logger.Info("tenant schema dropped", "namespace", ns)
	return nil
}

func (p *Provisioner) schemaExists(ctx context.Context, ns string) (bool, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT 1 FROM information_schema.schemata WHERE schema_name = $1", ns)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (p *Provisioner) presentTables(ctx context.Context, ns string) (map[string]bool, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = $1", ns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[string]bool, len(tables))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	return present, rows.Err()
}

func (p *Provisioner) createTable(ctx context.Context, ns string, t Table) error {
	if err := p.exec(ctx, t.CreateStatement(ns)); err != nil {
		return err
	}
	for _, stmt := range t.IndexStatements(ns) {
		if err := p.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// exec runs one DDL statement, tolerating losses of create races: another
// process creating the same object first is success, not failure.
func (p *Provisioner) exec(ctx context.Context, stmt string) error {
	_, err := p.db.ExecContext(ctx, stmt)
	if err != nil && isAlreadyExists(err) {
		return nil
	}
	return err
}

// isAlreadyExists matches the SQLSTATE codes PostgreSQL raises when a
// concurrent creator won the race: unique_violation on catalog rows,
// duplicate_schema and duplicate_table.
func isAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "23505", "42P06", "42P07":
		return true
	}
	return false
}

func (p *Provisioner) provisionErr(ns, msg string, err error) error {
	p.logger.Error("schema provisioning failed", "namespace", ns, "reason", msg, "error", err)
	return dErrors.Wrap(err, dErrors.CodeProvisioningFailed, fmt.Sprintf("%s for %s", msg, ns))
}
