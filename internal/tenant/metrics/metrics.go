// Package metrics exposes Prometheus instrumentation for the tenancy layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for tenant lifecycle, provisioning
// and per-tenant query execution.
type Metrics struct {
	tenantsCreated     prometheus.Counter
	tenantsDeleted     prometheus.Counter
	tenantsDeactivated prometheus.Counter
	accessDenied       *prometheus.CounterVec
	provisionRuns      *prometheus.CounterVec
	tablesRepaired     prometheus.Counter
	provisionDuration  prometheus.Histogram
	queryDuration      *prometheus.HistogramVec
	queryErrors        prometheus.Counter
}

// New registers the tenancy collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		tenantsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "praxis_tenants_created_total",
			Help: "Total number of tenants created.",
		}),
		tenantsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "praxis_tenants_deleted_total",
			Help: "Total number of tenants deleted.",
		}),
		tenantsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "praxis_tenants_deactivated_total",
			Help: "Total number of tenants deactivated.",
		}),
		accessDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_tenant_access_denied_total",
			Help: "Requests rejected by the tenant context gate, by reason.",
		}, []string{"reason"}),
		provisionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_schema_provision_runs_total",
			Help: "Schema provisioning runs, by outcome.",
		}, []string{"outcome"}),
		tablesRepaired: factory.NewCounter(prometheus.CounterOpts{
			Name: "praxis_schema_tables_repaired_total",
			Help: "Missing tables recreated by drift healing.",
		}),
		provisionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "praxis_schema_provision_duration_seconds",
			Help:    "Duration of schema provisioning runs.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "praxis_tenant_query_duration_seconds",
			Help:    "Duration of queries routed through the tenant gateway.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		queryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "praxis_tenant_query_errors_total",
			Help: "Queries that failed inside the tenant gateway.",
		}),
	}
}

// TenantCreated increments the created-tenants counter.
func (m *Metrics) TenantCreated() {
	if m == nil {
		return
	}
	m.tenantsCreated.Inc()
}

// TenantDeleted increments the deleted-tenants counter.
func (m *Metrics) TenantDeleted() {
	if m == nil {
		return
	}
	m.tenantsDeleted.Inc()
}

// TenantDeactivated increments the deactivated-tenants counter.
func (m *Metrics) TenantDeactivated() {
	if m == nil {
		return
	}
	m.tenantsDeactivated.Inc()
}

// AccessDenied records a gate rejection. The reason label is internal only
// and never reaches the caller.
func (m *Metrics) AccessDenied(reason string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(reason).Inc()
}

// ProvisionRun records a provisioning attempt and its duration.
func (m *Metrics) ProvisionRun(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.provisionRuns.WithLabelValues(outcome).Inc()
	m.provisionDuration.Observe(elapsed.Seconds())
}

// TablesRepaired records tables recreated during drift healing.
func (m *Metrics) TablesRepaired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tablesRepaired.Add(float64(n))
}

// QueryObserved records a gateway round trip.
func (m *Metrics) QueryObserved(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		m.queryErrors.Inc()
	}
}

// Provisioning outcome labels.
const (
	OutcomeCreated  = "created"
	OutcomeVerified = "verified"
	OutcomeRepaired = "repaired"
	OutcomeFailed   = "failed"
)
