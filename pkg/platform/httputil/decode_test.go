package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/requestcontext"
)

type plainRequest struct {
	Name string `json:"name"`
}

type validatingRequest struct {
	Name string `json:"name"`
}

func (r *validatingRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *validatingRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type domainErrorRequest struct {
	ID string `json:"id"`
}

func (r *domainErrorRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		w := httptest.NewRecorder()
		req, ok := DecodeJSON[plainRequest](w, r, discard)
		require.True(t, ok)
		assert.Equal(t, "x", req.Name)
	})

	t.Run("rejects malformed and unknown fields", func(t *testing.T) {
		for _, body := range []string{`{"name":`, `{"other":1}`} {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			w := httptest.NewRecorder()
			req, ok := DecodeJSON[plainRequest](w, r, discard)
			assert.False(t, ok)
			assert.Nil(t, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w).Error)
		}
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  x "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[validatingRequest](w, r, discard)
		require.True(t, ok)
		assert.Equal(t, "x", req.Name)
	})

	t.Run("wraps plain error with validation code", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[validatingRequest](w, r, discard)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w).Error)
	})

	t.Run("preserves domain error code", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":""}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[domainErrorRequest](w, r, discard)
		assert.False(t, ok)
		resp := decodeError(t, w)
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "id is required", resp.ErrorDescription)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeNotFound, "x"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeUnauthorized, "x"), http.StatusUnauthorized, "unauthorized"},
		{dErrors.New(dErrors.CodeUnavailable, "x"), http.StatusServiceUnavailable, "service_unavailable"},
		{dErrors.New(dErrors.CodeTimeout, "x"), http.StatusGatewayTimeout, "upstream_timeout"},
		{dErrors.New(dErrors.CodeUntrusted, "x"), http.StatusInternalServerError, "internal_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		resp := decodeError(t, w)
		assert.Equal(t, tc.code, resp.Error)
		if _, ok := tc.err.(*dErrors.Error); !ok {
			assert.Empty(t, resp.ErrorDescription)
		}
	}
}

func TestRequirePrincipal(t *testing.T) {
	_, err := RequirePrincipal(context.Background(), discard)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	ctx := requestcontext.WithPrincipal(context.Background(), requestcontext.Principal{Subject: "user-1"})
	p, err := RequirePrincipal(ctx, discard)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.Subject)
}
