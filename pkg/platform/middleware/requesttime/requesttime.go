// Package requesttime pins one "now" per request so that validation clocks,
// audit timestamps and token checks agree.
package requesttime

import (
	"net/http"
	"time"

	"greenlight/pkg/requestcontext"
)

// Middleware captures the wall clock once, in UTC, at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
