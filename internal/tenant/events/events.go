// Package events publishes tenant lifecycle events to Kafka.
//
// Publishing is best effort: a broker outage never fails the lifecycle
// operation that triggered the event, it only logs.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"praxis/internal/platform/kafka/producer"
	"praxis/internal/tenant/models"
	id "praxis/pkg/domain"
)

// Event names carried in the payload and the kafka message headers.
const (
	EventTenantCreated     = "tenant.created"
	EventTenantDeactivated = "tenant.deactivated"
	EventTenantReactivated = "tenant.reactivated"
	EventTenantDeleted     = "tenant.deleted"
)

// Producer is the publishing surface the event publisher needs.
type Producer interface {
	ProduceAsync(msg *producer.Message) error
}

// Publisher emits tenant lifecycle events. A nil *Publisher is a no-op, so
// callers never need to branch on whether eventing is configured.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Publisher. Returns nil if p is nil, which disables eventing.
func New(p Producer, topic string, logger *slog.Logger) *Publisher {
	if p == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: p, topic: topic, logger: logger, now: time.Now}
}

type envelope struct {
	Event      string `json:"event"`
	TenantID   string `json:"tenant_id"`
	Namespace  string `json:"namespace,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// TenantCreated publishes a tenant.created event.
func (p *Publisher) TenantCreated(ctx context.Context, e models.TenantCreated) {
	p.publish(ctx, EventTenantCreated, e.TenantID, e.Namespace)
}

// TenantDeactivated publishes a tenant.deactivated event.
func (p *Publisher) TenantDeactivated(ctx context.Context, e models.TenantDeactivated) {
	p.publish(ctx, EventTenantDeactivated, e.TenantID, "")
}

// TenantReactivated publishes a tenant.reactivated event.
func (p *Publisher) TenantReactivated(ctx context.Context, e models.TenantReactivated) {
	p.publish(ctx, EventTenantReactivated, e.TenantID, "")
}

// TenantDeleted publishes a tenant.deleted event.
func (p *Publisher) TenantDeleted(ctx context.Context, e models.TenantDeleted) {
	p.publish(ctx, EventTenantDeleted, e.TenantID, e.Namespace)
}

func (p *Publisher) publish(_ context.Context, event string, tenantID id.TenantID, ns string) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(envelope{
		Event:      event,
		TenantID:   tenantID.String(),
		Namespace:  ns,
		OccurredAt: p.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		p.logger.Error("tenant event marshal failed", "event", event, "error", err)
		return
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(tenantID.String()),
		Value: payload,
		Headers: map[string]string{
			"event": event,
		},
	}
	if err := p.producer.ProduceAsync(msg); err != nil {
		p.logger.Error("tenant event publish failed", "event", event, "tenant_id", tenantID.String(), "error", err)
	}
}
