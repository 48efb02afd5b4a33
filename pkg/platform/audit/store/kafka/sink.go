// Package kafka streams audit events to a Kafka topic as JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"greenlight/internal/platform/kafka/producer"
	audit "greenlight/pkg/platform/audit"
)

const DefaultTopic = "greenlight.audit"

// Producer is satisfied by producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

type Sink struct {
	producer Producer
	topic    string
}

func NewSink(p Producer, topic string) *Sink {
	if p == nil {
		panic("kafka producer is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{producer: p, topic: topic}
}

type record struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Action      string     `json:"action"`
	Outcome     string     `json:"outcome,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Certificate string     `json:"certificate,omitempty"`
	Country     string     `json:"country,omitempty"`
	Region      string     `json:"region,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	RequestID   string     `json:"request_id,omitempty"`
	ClientIP    string     `json:"client_ip,omitempty"`
	Device      string     `json:"device,omitempty"`
}

// Append keys records by subject so one person's events stay ordered.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	rec := record{
		ID:          event.ID.String(),
		Timestamp:   event.Timestamp.UTC(),
		Action:      string(event.Action),
		Outcome:     event.Outcome,
		Subject:     event.Subject,
		Certificate: event.Certificate,
		Country:     event.Country,
		Region:      event.Region,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		ClientIP:    event.ClientIP,
		Device:      event.Device,
	}
	if !event.ValidUntil.IsZero() {
		v := event.ValidUntil.UTC()
		rec.ValidUntil = &v
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: map[string]string{
			"event_type": string(event.Action),
			"event_id":   rec.ID,
		},
	})
}
