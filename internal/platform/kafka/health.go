// Package kafka holds broker health checks shared by the Kafka clients.
package kafka

import (
	"context"
	"time"
)

// Pinger is satisfied by producer.Producer.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	client  Pinger
	timeout time.Duration
}

func NewHealthChecker(client Pinger) *HealthChecker {
	return &HealthChecker{client: client, timeout: 5 * time.Second}
}

func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.client.Ping(ctx)
}

func (h *HealthChecker) Name() string {
	return "kafka"
}
