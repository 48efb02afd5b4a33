// Package ratelimit throttles requests per client address with a token bucket.
package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"greenlight/pkg/platform/privacy"
	"greenlight/pkg/requestcontext"
)

// DefaultMaxClients bounds the number of tracked client buckets. The least
// recently seen client is evicted first.
const DefaultMaxClients = 10_000

type Limiter struct {
	rps     rate.Limit
	burst   int
	mu      sync.Mutex
	clients *lru.Cache[string, *rate.Limiter]
	logger  *slog.Logger
}

// New returns a limiter allowing rps sustained requests and burst extra per
// client. A non-positive rps disables limiting.
func New(rps float64, burst int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if burst < 1 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](DefaultMaxClients)
	if err != nil {
		panic(err)
	}
	return &Limiter{rps: rate.Limit(rps), burst: burst, clients: cache, logger: logger}
}

func (l *Limiter) allow(client string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	lim, ok := l.clients.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.clients.Add(client, lim)
	}
	l.mu.Unlock()

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Handler keys buckets on the client IP resolved by the metadata middleware.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	if l.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client := requestcontext.ClientIP(ctx)
		if client == "" {
			client = "unknown"
		}
		ok, retry := l.allow(client, time.Now())
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.WarnContext(ctx, "rate limit exceeded",
			"client_ip_prefix", privacy.AnonymizeIP(client),
			"request_id", requestcontext.RequestID(ctx),
		)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"too many requests"}`)) //nolint:errcheck // headers already sent
	})
}
