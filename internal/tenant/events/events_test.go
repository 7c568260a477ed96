package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/platform/kafka/producer"
	"praxis/internal/tenant/models"
	"praxis/internal/tenant/namespace"
	id "praxis/pkg/domain"
)

type captureProducer struct {
	messages []*producer.Message
	err      error
}

func (c *captureProducer) ProduceAsync(msg *producer.Message) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func newTestPublisher(t *testing.T, p Producer) *Publisher {
	t.Helper()
	pub := New(p, "tenant-events", slog.New(slog.DiscardHandler))
	require.NotNil(t, pub)
	pub.now = func() time.Time {
		return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return pub
}

func TestPublisher_TenantCreated(t *testing.T) {
	capture := &captureProducer{}
	pub := newTestPublisher(t, capture)

	tenantID := id.TenantID(uuid.New())
	ns := namespace.ForTenant(tenantID)
	pub.TenantCreated(context.Background(), models.TenantCreated{TenantID: tenantID, Namespace: ns})

	require.Len(t, capture.messages, 1)
	msg := capture.messages[0]
	assert.Equal(t, "tenant-events", msg.Topic)
	assert.Equal(t, tenantID.String(), string(msg.Key))
	assert.Equal(t, EventTenantCreated, msg.Headers["event"])

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, EventTenantCreated, payload["event"])
	assert.Equal(t, tenantID.String(), payload["tenant_id"])
	assert.Equal(t, ns, payload["namespace"])
	assert.Equal(t, "2026-03-15T10:30:00Z", payload["occurred_at"])
}

func TestPublisher_DeactivatedOmitsNamespace(t *testing.T) {
	capture := &captureProducer{}
	pub := newTestPublisher(t, capture)

	tenantID := id.TenantID(uuid.New())
	pub.TenantDeactivated(context.Background(), models.TenantDeactivated{TenantID: tenantID})

	require.Len(t, capture.messages, 1)
	assert.Equal(t, EventTenantDeactivated, capture.messages[0].Headers["event"])
	assert.NotContains(t, string(capture.messages[0].Value), "namespace")
}

func TestPublisher_DeletedCarriesNamespace(t *testing.T) {
	capture := &captureProducer{}
	pub := newTestPublisher(t, capture)

	tenantID := id.TenantID(uuid.New())
	ns := namespace.ForTenant(tenantID)
	pub.TenantDeleted(context.Background(), models.TenantDeleted{TenantID: tenantID, Namespace: ns})

	require.Len(t, capture.messages, 1)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(capture.messages[0].Value, &payload))
	assert.Equal(t, EventTenantDeleted, payload["event"])
	assert.Equal(t, ns, payload["namespace"])
}

func TestPublisher_ProduceFailureIsSwallowed(t *testing.T) {
	capture := &captureProducer{err: errors.New("broker down")}
	pub := newTestPublisher(t, capture)

	tenantID := id.TenantID(uuid.New())
	pub.TenantReactivated(context.Background(), models.TenantReactivated{TenantID: tenantID})

	assert.Empty(t, capture.messages)
}

func TestNew_NilProducerDisablesEventing(t *testing.T) {
	pub := New(nil, "tenant-events", slog.New(slog.DiscardHandler))
	assert.Nil(t, pub)

	// A nil publisher is safe to call.
	pub.TenantCreated(context.Background(), models.TenantCreated{})
	pub.TenantDeleted(context.Background(), models.TenantDeleted{})
}
