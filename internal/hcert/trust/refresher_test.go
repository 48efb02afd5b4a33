package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/audit"
	"greenlight/pkg/platform/audit/publisher"
	"greenlight/pkg/platform/audit/store/memory"
)

type stubFetcher struct {
	list TrustList
	err  error
}

func (f *stubFetcher) Fetch(context.Context) (TrustList, error) {
	return f.list, f.err
}

type RefresherSuite struct {
	suite.Suite
	fetcher   *stubFetcher
	store     *memory.InMemoryStore
	refresher *Refresher
}

func TestRefresherSuite(t *testing.T) {
	suite.Run(t, new(RefresherSuite))
}

func (s *RefresherSuite) SetupTest() {
	s.fetcher = &stubFetcher{list: TrustList{
		Rules:              []byte("rules"),
		RulesSignature:     []byte("rsig"),
		ValueSets:          []byte("valuesets"),
		ValueSetsSignature: []byte("vsig"),
	}}
	s.store = memory.NewInMemoryStore()
	now := time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)
	s.refresher = NewRefresher(s.fetcher,
		WithRefresherAuditor(publisher.New(s.store)),
		WithRefresherClock(func() time.Time { return now }),
	)
}

func (s *RefresherSuite) TestCurrentBeforeFirstRefresh() {
	_, err := s.refresher.Current(context.Background())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.True(s.refresher.FetchedAt().IsZero())
}

func (s *RefresherSuite) TestRefreshStoresListAndAuditsChanges() {
	ctx := context.Background()
	s.Require().NoError(s.refresher.Refresh(ctx))

	list, err := s.refresher.Current(ctx)
	s.Require().NoError(err)
	s.Equal([]byte("rules"), list.Rules)
	s.False(s.refresher.FetchedAt().IsZero())

	// same content is not audited twice
	s.Require().NoError(s.refresher.Refresh(ctx))
	s.Len(s.store.All(), 1)

	s.fetcher.list.Rules = []byte("rules-v2")
	s.Require().NoError(s.refresher.Refresh(ctx))
	events := s.store.All()
	s.Require().Len(events, 2)
	s.Equal(audit.ActionTrustListRefreshed, events[1].Action)
	s.NotEqual(events[0].Reason, events[1].Reason)
}

func (s *RefresherSuite) TestFailedRefreshKeepsPreviousList() {
	ctx := context.Background()
	s.Require().NoError(s.refresher.Refresh(ctx))

	s.fetcher.err = errors.New("network down")
	s.Require().Error(s.refresher.Refresh(ctx))

	list, err := s.refresher.Current(ctx)
	s.Require().NoError(err)
	s.Equal([]byte("rules"), list.Rules)
}

func (s *RefresherSuite) TestIncompleteListIsRejected() {
	s.fetcher.list.ValueSets = nil
	err := s.refresher.Refresh(context.Background())
	s.Require().Error(err)
	_, err = s.refresher.Current(context.Background())
	s.Error(err)
}

func (s *RefresherSuite) TestRunStopsWithContext() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.refresher.Run(ctx, time.Millisecond)
		close(done)
	}()
	s.Eventually(func() bool {
		_, err := s.refresher.Current(context.Background())
		return err == nil
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Run did not return after cancel")
	}
}
