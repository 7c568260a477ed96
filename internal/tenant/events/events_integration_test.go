//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"praxis/internal/platform/kafka/producer"
	"praxis/internal/tenant/events"
	"praxis/internal/tenant/models"
	"praxis/internal/tenant/namespace"
	id "praxis/pkg/domain"
	"praxis/pkg/testutil/containers"
)

const eventsTopic = "tenant-events"

type EventsSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestEventsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(EventsSuite))
}

func (s *EventsSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.kafka = mgr.GetKafka(s.T())
	s.Require().NoError(s.kafka.CreateTopic(context.Background(), eventsTopic, 1, 1))

	p, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, slog.New(slog.DiscardHandler))
	s.Require().NoError(err)
	s.producer = p
}

func (s *EventsSuite) TearDownSuite() {
	if s.producer != nil {
		s.Require().NoError(s.producer.Close())
	}
}

func (s *EventsSuite) TestLifecycleEventsReachBroker() {
	ctx := context.Background()
	pub := events.New(s.producer, eventsTopic, slog.New(slog.DiscardHandler))
	s.Require().NotNil(pub)

	tenantID := id.TenantID(uuid.New())
	ns := namespace.ForTenant(tenantID)

	pub.TenantCreated(ctx, models.TenantCreated{TenantID: tenantID, Namespace: ns})
	pub.TenantDeactivated(ctx, models.TenantDeactivated{TenantID: tenantID})
	s.Equal(0, s.producer.Flush(10*time.Second))

	consumer, err := s.kafka.NewConsumer(ctx, "events-suite-"+uuid.NewString(), eventsTopic)
	s.Require().NoError(err)
	defer consumer.Close()

	created := s.kafka.WaitForMessage(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		return headerValue(r, "event") == events.EventTenantCreated && string(r.Key) == tenantID.String()
	})
	s.Require().NotNil(created, "tenant.created event not observed")

	var payload map[string]string
	s.Require().NoError(json.Unmarshal(created.Value, &payload))
	s.Equal(tenantID.String(), payload["tenant_id"])
	s.Equal(ns, payload["namespace"])
	s.NotEmpty(payload["occurred_at"])

	deactivated := s.kafka.WaitForMessage(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		return headerValue(r, "event") == events.EventTenantDeactivated && string(r.Key) == tenantID.String()
	})
	s.Require().NotNil(deactivated, "tenant.deactivated event not observed")
}

func headerValue(r *kgo.Record, key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
