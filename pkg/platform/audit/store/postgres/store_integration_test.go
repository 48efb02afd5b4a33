//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "greenlight/pkg/platform/audit"
	"greenlight/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = New(s.pg.DB)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "validation_audit"))
}

func (s *StoreSuite) TestAppendAndList() {
	ctx := context.Background()
	base := time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)

	valid := audit.Event{
		Timestamp:   base,
		Action:      audit.ActionCertificateValidated,
		Outcome:     audit.OutcomeValid,
		Subject:     "user-1",
		Certificate: "ab12cd34ef56ab78",
		Country:     "AT",
		ValidUntil:  base.Add(72 * time.Hour),
		RequestID:   "req-1",
		ClientIP:    "10.0.0.0",
		Device:      "Firefox on Linux",
	}
	invalid := audit.Event{
		Timestamp: base.Add(time.Minute),
		Action:    audit.ActionCertificateValidated,
		Outcome:   audit.OutcomeInvalid,
		Subject:   "user-1",
		Reason:    "[GR-AT-0001] Test type must be accepted",
	}
	s.Require().NoError(s.store.Append(ctx, valid))
	s.Require().NoError(s.store.Append(ctx, invalid))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Timestamp: base, Action: audit.ActionCertificateValidated, Subject: "user-2"}))

	events, err := s.store.ListBySubject(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.OutcomeInvalid, events[0].Outcome)
	s.Equal(invalid.Reason, events[0].Reason)
	s.True(events[0].ValidUntil.IsZero())
	s.True(events[1].ValidUntil.Equal(valid.ValidUntil))
	s.Equal("Firefox on Linux", events[1].Device)

	recent, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Len(recent, 1)
}

func (s *StoreSuite) TestAppendIsIdempotentByID() {
	ctx := context.Background()
	event := audit.Event{ID: uuid.New(), Timestamp: time.Now(), Action: audit.ActionCertificateValidated, Subject: "user-3"}
	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListBySubject(ctx, "user-3")
	s.Require().NoError(err)
	s.Len(events, 1)
}
