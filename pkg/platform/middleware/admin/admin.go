// Package admin guards operator endpoints with a shared token.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"greenlight/pkg/requestcontext"
)

const (
	headerToken = "X-Admin-Token"
	headerActor = "X-Admin-Actor-ID"
)

type actorKey struct{}

// ActorID is the operator named by X-Admin-Actor-ID, or "".
func ActorID(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// RequireAdminToken rejects requests whose X-Admin-Token does not match.
// An empty expected token disables the guarded routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if expectedToken == "" {
				writeJSON(w, http.StatusForbidden, `{"error":"forbidden","error_description":"admin endpoints are disabled"}`)
				return
			}
			token := r.Header.Get(headerToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSON(w, http.StatusUnauthorized, `{"error":"unauthorized","error_description":"admin token required"}`)
				return
			}

			if actor := r.Header.Get(headerActor); actor != "" {
				ctx = context.WithValue(ctx, actorKey{}, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body)) //nolint:errcheck // headers already sent
}
