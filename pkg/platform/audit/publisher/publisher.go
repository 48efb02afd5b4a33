package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "greenlight/pkg/domain-errors"
	audit "greenlight/pkg/platform/audit"
)

// Publisher hands events to a store, optionally through a bounded buffer
// drained by one background goroutine.
type Publisher struct {
	store   audit.Store
	events  chan audit.Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	async   bool
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Publisher)

// WithAsyncBuffer queues up to size events. Emit drops events when full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAppendTimeout bounds each background Append.
func WithAppendTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	if store == nil {
		panic("audit store is required")
	}
	p := &Publisher{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"event_id", event.ID,
			)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if !p.async {
		return p.store.Append(ctx, event)
	}
	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("audit buffer full, event dropped",
			"action", event.Action,
			"outcome", event.Outcome,
		)
		return dErrors.New(dErrors.CodeUnavailable, "audit buffer full")
	}
}
