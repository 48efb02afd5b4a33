package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	audit "greenlight/pkg/platform/audit"
)

// Store implements audit.Store on the validation_audit table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertEvent = `
	INSERT INTO validation_audit (
		id, occurred_at, action, outcome, subject, certificate,
		country, region, reason, valid_until, request_id, client_ip, device
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO NOTHING
`

// Append inserts the event. Events carrying an ID are idempotent.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	var validUntil *time.Time
	if !event.ValidUntil.IsZero() {
		validUntil = &event.ValidUntil
	}
	_, err := s.db.ExecContext(ctx, insertEvent,
		event.ID,
		event.Timestamp,
		string(event.Action),
		event.Outcome,
		event.Subject,
		event.Certificate,
		event.Country,
		event.Region,
		event.Reason,
		validUntil,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, occurred_at, action, outcome, subject, certificate,
	       country, region, reason, valid_until, request_id, client_ip, device
	FROM validation_audit
`

// ListBySubject returns a person's events, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE subject = $1 ORDER BY occurred_at DESC`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the newest events. limit is clamped to int32.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	limit = min(max(limit, 0), math.MaxInt32)
	rows, err := s.db.QueryContext(ctx, selectColumns+`ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			action     string
			validUntil sql.NullTime
		)
		if err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&action,
			&event.Outcome,
			&event.Subject,
			&event.Certificate,
			&event.Country,
			&event.Region,
			&event.Reason,
			&validUntil,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		if validUntil.Valid {
			event.ValidUntil = validUntil.Time
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
