// Package gateway routes SQL to a single tenant's schema.
//
// Query templates reference the tenant schema through the {{schema}}
// placeholder. Substitution happens in exactly one place, after the
// namespace has passed validation, so no other layer ever concatenates a
// namespace into SQL. All values travel as bind parameters.
package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"praxis/internal/platform/tracer"
	"praxis/internal/tenant/cache"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/namespace"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
)

// SchemaPlaceholder marks where the tenant schema is substituted into a template.
const SchemaPlaceholder = "{{schema}}"

// DB is the database surface the gateway needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Provisioner guarantees a namespace exists before the gateway touches it.
type Provisioner interface {
	EnsureNamespace(ctx context.Context, ns string) error
}

// Record is one row with column names as keys. Byte slices (jsonb, text
// from some drivers) are converted to strings so records serialize cleanly.
type Record map[string]any

// Factory builds per-tenant gateways, ensuring the tenant schema is
// provisioned on first access within the cache TTL.
type Factory struct {
	db          DB
	provisioner Provisioner
	cache       cache.ProvisionCache
	timeout     time.Duration
	logger      *slog.Logger
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
}

// FactoryOption configures the Factory.
type FactoryOption func(*Factory)

// WithCache sets the provisioned-state cache.
func WithCache(c cache.ProvisionCache) FactoryOption {
	return func(f *Factory) {
		f.cache = c
	}
}

// WithQueryTimeout bounds each round trip that arrives without a deadline.
func WithQueryTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithTracer sets the tracer for gateway spans.
func WithTracer(t tracer.Tracer) FactoryOption {
	return func(f *Factory) {
		f.tracer = t
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) FactoryOption {
	return func(f *Factory) {
		f.metrics = m
	}
}

// NewFactory creates a gateway factory.
func NewFactory(db DB, p Provisioner, opts ...FactoryOption) *Factory {
	f := &Factory{db: db, provisioner: p}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = cache.NewMemory(30 * time.Second)
	}
	if f.timeout <= 0 {
		f.timeout = 5 * time.Second
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.tracer == nil {
		f.tracer = tracer.NewNoop()
	}
	return f
}

// ForTenant returns a gateway bound to the tenant's namespace. The namespace
// is validated and, unless recently verified, provisioned before any query
// can run through the returned gateway.
func (f *Factory) ForTenant(ctx context.Context, tenantID id.TenantID, ns string) (*Gateway, error) {
	if err := namespace.Validate(ns); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidNamespace, "namespace rejected")
	}

	if !f.cache.IsProvisioned(ctx, ns) {
		if err := f.provisioner.EnsureNamespace(ctx, ns); err != nil {
			return nil, err
		}
		f.cache.MarkProvisioned(ctx, ns)
	}

	return &Gateway{
		db:       f.db,
		tenantID: tenantID,
		ns:       ns,
		timeout:  f.timeout,
		logger:   f.logger,
		tracer:   f.tracer,
		metrics:  f.metrics,
	}, nil
}

// Gateway executes queries inside one tenant's schema.
type Gateway struct {
	db       DB
	tenantID id.TenantID
	ns       string
	timeout  time.Duration
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
}

// TenantID returns the tenant this gateway is bound to.
func (g *Gateway) TenantID() id.TenantID {
	return g.tenantID
}

// Namespace returns the schema this gateway is bound to.
func (g *Gateway) Namespace() string {
	return g.ns
}

// Query runs a read template and returns all rows.
func (g *Gateway) Query(ctx context.Context, template string, args ...any) ([]Record, error) {
	query, err := g.expand(template)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.bound(ctx)
	defer cancel()
	ctx, span := g.tracer.Start(ctx, tracer.SpanGatewayQuery,
		tracer.String(tracer.AttrTenantID, g.tenantID.String()),
		tracer.String(tracer.AttrNamespace, g.ns))
	start := time.Now()

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.End(err)
		g.metrics.QueryObserved("query", time.Since(start), err)
		return nil, g.queryErr(err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	span.End(err)
	g.metrics.QueryObserved("query", time.Since(start), err)
	if err != nil {
		return nil, g.queryErr(err)
	}
	return records, nil
}

// QueryOne runs a read template expected to return at most one row.
// Returns nil when no row matches.
func (g *Gateway) QueryOne(ctx context.Context, template string, args ...any) (Record, error) {
	records, err := g.Query(ctx, template, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Exec runs a write template and returns the number of affected rows.
func (g *Gateway) Exec(ctx context.Context, template string, args ...any) (int64, error) {
	query, err := g.expand(template)
	if err != nil {
		return 0, err
	}

	ctx, cancel := g.bound(ctx)
	defer cancel()
	ctx, span := g.tracer.Start(ctx, tracer.SpanGatewayExec,
		tracer.String(tracer.AttrTenantID, g.tenantID.String()),
		tracer.String(tracer.AttrNamespace, g.ns))
	start := time.Now()

	res, err := g.db.ExecContext(ctx, query, args...)
	span.End(err)
	g.metrics.QueryObserved("exec", time.Since(start), err)
	if err != nil {
		return 0, g.queryErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, g.queryErr(err)
	}
	return affected, nil
}

// expand substitutes the schema placeholder. This is the only point in the
// codebase where a namespace enters SQL text, and the namespace was
// validated when the gateway was built.
func (g *Gateway) expand(template string) (string, error) {
	if err := namespace.Validate(g.ns); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidNamespace, "namespace rejected")
	}
	return strings.ReplaceAll(template, SchemaPlaceholder, g.ns), nil
}

// bound attaches the per-round-trip timeout unless the caller already set a deadline.
func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// queryErr wraps a driver error with tenant context. The wrapped message
// names tenant and namespace but never echoes SQL text or bound values.
func (g *Gateway) queryErr(err error) error {
	g.logger.Error("tenant query failed",
		"tenant_id", g.tenantID.String(), "namespace", g.ns, "error", err)
	return dErrors.Wrap(err, dErrors.CodeQueryExecution,
		fmt.Sprintf("query failed for tenant %s in %s", g.tenantID, g.ns))
}

// scanRecords reads all rows into Records keyed by column name.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case []byte:
				rec[col] = string(v)
			default:
				rec[col] = v
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
