// Package decoder turns a compact HCERT string into claims by calling an
// external decode service. CBOR/COSE handling lives in that service.
package decoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"greenlight/internal/hcert/claims"
	dErrors "greenlight/pkg/domain-errors"
)

const maxDocumentBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPDecoderConfig configures an HTTPDecoder.
type HTTPDecoderConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// HTTPDecoder posts {"hcert": "..."} to the decode service and expects the
// decoded DCC JSON document back.
type HTTPDecoder struct {
	url    string
	apiKey string
	client HTTPDoer
}

func NewHTTPDecoder(cfg HTTPDecoderConfig) *HTTPDecoder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPDecoder{url: cfg.URL, apiKey: cfg.APIKey, client: client}
}

type decodeRequest struct {
	HCert string `json:"hcert"`
}

// Decode returns the certificate claims. Malformed certificates are
// CodeBadRequest; decode service trouble is CodeUnavailable or CodeTimeout.
func (d *HTTPDecoder) Decode(ctx context.Context, certificate string) (claims.Claims, error) {
	certificate = strings.TrimSpace(certificate)
	if certificate == "" {
		return claims.Claims{}, dErrors.New(dErrors.CodeBadRequest, "certificate is empty")
	}
	body, err := json.Marshal(decodeRequest{HCert: certificate})
	if err != nil {
		return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal decode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create decode request")
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("X-API-Key", d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeTimeout, "decode service timeout")
		}
		return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode service unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read decode response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return claims.Claims{}, dErrors.New(dErrors.CodeBadRequest, "certificate could not be decoded: "+errorText(respBody))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return claims.Claims{}, dErrors.New(dErrors.CodeUnavailable, "decode service rejected credentials: "+strconv.Itoa(resp.StatusCode))
	default:
		return claims.Claims{}, dErrors.New(dErrors.CodeUnavailable, "decode service returned "+strconv.Itoa(resp.StatusCode))
	}

	var doc map[string]any
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return claims.Claims{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "decoded certificate is not a JSON object")
	}
	return claims.FromDocument(doc)
}

// errorText pulls a message out of an error body, falling back to the raw text.
func errorText(body []byte) string {
	var e struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Description != "" {
			return e.Description
		}
		if e.Error != "" {
			return e.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
