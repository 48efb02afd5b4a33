package trust

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"greenlight/internal/hcert/metrics"
	"greenlight/internal/hcert/tracer"
	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/circuit"
)

const maxTrustListBytes = 16 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Cache stores the last trust list fetched successfully.
type Cache interface {
	Load(ctx context.Context) (TrustList, error)
	Store(ctx context.Context, list TrustList) error
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Cache      Cache
	Breaker    *circuit.Breaker
}

// Fetcher retrieves the trust list. Remote failures fall back to the cache;
// after repeated failures the breaker opens and the remote is only probed
// once per cooldown.
type Fetcher struct {
	url     string
	client  HTTPDoer
	cache   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type FetcherOption func(*Fetcher)

func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func WithFetcherMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

func WithFetcherTracer(t tracer.Tracer) FetcherOption {
	return func(f *Fetcher) {
		f.tracer = t
	}
}

func NewFetcher(cfg FetcherConfig, opts ...FetcherOption) *Fetcher {
	if cfg.URL == "" {
		panic("trust list URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	f := &Fetcher{
		url:     cfg.URL,
		client:  cfg.HTTPClient,
		cache:   cfg.Cache,
		breaker: cfg.Breaker,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  tracer.NewNoop(),
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: cfg.Timeout}
	}
	if f.breaker == nil {
		f.breaker = circuit.New("trust-list")
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the current trust list.
func (f *Fetcher) Fetch(ctx context.Context) (list TrustList, err error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanFetchTrustList)
	defer func() { span.End(err) }()

	if !f.breaker.Allow() {
		span.SetAttributes(tracer.String(tracer.AttrSource, "cache"))
		return f.fromCache(ctx, dErrors.New(dErrors.CodeUnavailable, "trust list endpoint circuit is open"))
	}

	list, err = f.fetchRemote(ctx)
	f.recordFetch("remote", err)
	if err == nil {
		_, change := f.breaker.RecordSuccess()
		f.logStateChange(ctx, change)
		f.store(ctx, list)
		span.SetAttributes(tracer.String(tracer.AttrSource, "remote"))
		return list, nil
	}

	_, change := f.breaker.RecordFailure()
	f.logStateChange(ctx, change)
	f.logger.WarnContext(ctx, "trust list fetch failed", "url", f.url, "error", err)
	span.SetAttributes(tracer.String(tracer.AttrSource, "cache"))
	return f.fromCache(ctx, err)
}

func (f *Fetcher) fetchRemote(ctx context.Context) (TrustList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeInternal, "build trust list request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return TrustList{}, dErrors.Wrap(err, dErrors.CodeTimeout, "trust list request timed out")
		}
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "trust list request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTrustListBytes))
	if err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "read trust list")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return DecodeTrustList(body)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return TrustList{}, dErrors.New(dErrors.CodeUnauthorized, "trust list endpoint rejected credentials")
	case resp.StatusCode == http.StatusNotFound:
		return TrustList{}, dErrors.New(dErrors.CodeNotFound, "trust list not found at "+f.url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return TrustList{}, dErrors.New(dErrors.CodeUnavailable, "trust list endpoint returned "+strconv.Itoa(resp.StatusCode))
	default:
		return TrustList{}, dErrors.New(dErrors.CodeBadRequest, "unexpected trust list status "+strconv.Itoa(resp.StatusCode))
	}
}

func (f *Fetcher) fromCache(ctx context.Context, cause error) (TrustList, error) {
	if f.cache == nil {
		return TrustList{}, cause
	}
	list, err := f.cache.Load(ctx)
	f.recordFetch("cache", err)
	if err != nil {
		f.logger.ErrorContext(ctx, "no trust list available", "cause", cause, "cache_error", err)
		return TrustList{}, dErrors.Wrap(cause, dErrors.CodeUnavailable, "trust list unavailable: "+cause.Error())
	}
	f.logger.InfoContext(ctx, "serving cached trust list", "cause", cause)
	return list, nil
}

func (f *Fetcher) store(ctx context.Context, list TrustList) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Store(ctx, list); err != nil {
		f.logger.WarnContext(ctx, "failed to cache trust list", "error", err)
	}
}

func (f *Fetcher) logStateChange(ctx context.Context, change circuit.StateChange) {
	switch {
	case change.Opened:
		f.logger.WarnContext(ctx, "trust list circuit opened", "breaker", f.breaker.Name())
	case change.Closed:
		f.logger.InfoContext(ctx, "trust list circuit closed", "breaker", f.breaker.Name())
	default:
		return
	}
	if f.metrics != nil {
		f.metrics.SetBreakerOpen(change.Opened)
	}
}

func (f *Fetcher) recordFetch(source string, err error) {
	if f.metrics != nil {
		f.metrics.RecordTrustFetch(source, err)
	}
}
