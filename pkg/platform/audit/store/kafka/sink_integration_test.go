//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"greenlight/internal/platform/kafka/producer"
	audit "greenlight/pkg/platform/audit"
	"greenlight/pkg/testutil/containers"
)

type SinkIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestSinkIntegrationSuite(t *testing.T) {
	suite.Run(t, new(SinkIntegrationSuite))
}

func (s *SinkIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	p, err := producer.New(producer.DefaultConfig(s.kafka.Brokers), slog.New(slog.DiscardHandler))
	s.Require().NoError(err)
	s.producer = p
}

func (s *SinkIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close(5 * time.Second)
	}
}

func (s *SinkIntegrationSuite) TestAppendPublishesRecord() {
	ctx := context.Background()
	topic := "audit-" + uuid.NewString()
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	event := audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC),
		Action:    audit.ActionCertificateValidated,
		Outcome:   audit.OutcomeValid,
		Subject:   "holder-1",
		Country:   "AT",
	}
	s.Require().NoError(NewSink(s.producer, topic).Append(ctx, event))

	consumer, err := s.kafka.NewConsumer("sink-test-"+uuid.NewString(), topic)
	s.Require().NoError(err)
	defer consumer.Close()

	rec := s.kafka.WaitForRecord(ctx, consumer, 20*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "holder-1"
	})
	s.Require().NotNil(rec, "record not delivered")

	var got map[string]any
	s.Require().NoError(json.Unmarshal(rec.Value, &got))
	s.Equal(event.ID.String(), got["id"])
	s.Equal("AT", got["country"])
	s.NotContains(got, "valid_until")
}

func (s *SinkIntegrationSuite) TestPing() {
	s.NoError(s.producer.Ping(context.Background()))
}
