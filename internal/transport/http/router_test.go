package httptransport

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenlight/pkg/platform/middleware/request"
	"greenlight/pkg/requestcontext"
)

type registrarFunc func(chi.Router)

func (f registrarFunc) Register(r chi.Router) { f(r) }

func newTestRouter(t *testing.T, seen *[]string) http.Handler {
	t.Helper()
	record := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			*seen = append(*seen, name)
			assert.NotEmpty(t, requestcontext.RequestID(r.Context()))
			assert.False(t, requestcontext.Now(r.Context()).IsZero())
			w.WriteHeader(http.StatusOK)
		}
	}
	denyAll := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	return NewRouter(Config{
		Validation:     registrarFunc(func(r chi.Router) { r.Post("/greenlight/validate", record("validate")) }),
		Admin:          registrarFunc(func(r chi.Router) { r.Post("/admin/trust/refresh", record("refresh")) }),
		Health:         registrarFunc(func(r chi.Router) { r.Get("/health/live", record("live")) }),
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		Authenticate:   denyAll,
		AdminToken:     "0123456789abcdef",
		RequestMetrics: request.NewMetricsWithRegisterer(prometheus.NewRegistry()),
	}, slog.New(slog.DiscardHandler))
}

func TestRouterGuards(t *testing.T) {
	var seen []string
	router := newTestRouter(t, &seen)

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		want    int
	}{
		{"health is public", http.MethodGet, "/health/live", nil, http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", nil, http.StatusOK},
		{"validation requires auth", http.MethodPost, "/greenlight/validate", map[string]string{"Content-Type": "application/json"}, http.StatusUnauthorized},
		{"validation rejects non-json first", http.MethodPost, "/greenlight/validate", map[string]string{"Content-Type": "text/plain"}, http.StatusUnsupportedMediaType},
		{"admin requires token", http.MethodPost, "/admin/trust/refresh", nil, http.StatusUnauthorized},
		{"admin with token", http.MethodPost, "/admin/trust/refresh", map[string]string{"X-Admin-Token": "0123456789abcdef"}, http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
	require.Equal(t, []string{"live", "refresh"}, seen)
}
