package trust

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/audit"
)

// ListFetcher is satisfied by *Fetcher.
type ListFetcher interface {
	Fetch(ctx context.Context) (TrustList, error)
}

// Refresher keeps the most recent trust list in memory so validations do
// not wait on the network. A failed refresh keeps the previous list.
type Refresher struct {
	fetcher ListFetcher
	current atomic.Pointer[snapshot]
	auditor audit.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

type snapshot struct {
	list      TrustList
	digest    string
	fetchedAt time.Time
}

type RefresherOption func(*Refresher)

func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithRefresherAuditor records a trust_list_refreshed event whenever the
// list content changes.
func WithRefresherAuditor(a audit.Emitter) RefresherOption {
	return func(r *Refresher) {
		r.auditor = a
	}
}

func WithRefresherClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		r.now = now
	}
}

func NewRefresher(fetcher ListFetcher, opts ...RefresherOption) *Refresher {
	if fetcher == nil {
		panic("trust list fetcher is required")
	}
	r := &Refresher{
		fetcher: fetcher,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the last list fetched, or CodeUnavailable before the first
// successful refresh.
func (r *Refresher) Current(context.Context) (TrustList, error) {
	snap := r.current.Load()
	if snap == nil {
		return TrustList{}, dErrors.New(dErrors.CodeUnavailable, "trust list has not been loaded")
	}
	return snap.list, nil
}

// FetchedAt is zero before the first successful refresh.
func (r *Refresher) FetchedAt() time.Time {
	if snap := r.current.Load(); snap != nil {
		return snap.fetchedAt
	}
	return time.Time{}
}

func (r *Refresher) Refresh(ctx context.Context) error {
	list, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := list.Validate(); err != nil {
		return err
	}
	next := &snapshot{list: list, digest: listDigest(list), fetchedAt: r.now()}
	prev := r.current.Swap(next)
	if prev != nil && prev.digest == next.digest {
		return nil
	}

	r.logger.InfoContext(ctx, "trust list updated", "digest", next.digest)
	if r.auditor != nil {
		event := audit.Event{
			Timestamp: next.fetchedAt,
			Action:    audit.ActionTrustListRefreshed,
			Reason:    next.digest,
		}
		if err := r.auditor.Emit(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
		}
	}
	return nil
}

// Run refreshes every interval until ctx is done. Failures are logged.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.WarnContext(ctx, "trust list refresh failed", "error", err)
			}
		}
	}
}

func listDigest(l TrustList) string {
	h, _ := blake2b.New256(nil)
	for _, part := range [][]byte{l.Rules, l.RulesSignature, l.ValueSets, l.ValueSetsSignature} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
