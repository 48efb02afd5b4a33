// Package handler exposes certificate validation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"greenlight/internal/hcert/identity"
	"greenlight/internal/hcert/service"
	"greenlight/internal/hcert/trust"
	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/httputil"
	"greenlight/pkg/platform/validation"
	"greenlight/pkg/requestcontext"
)

type Validator interface {
	Validate(ctx context.Context, req service.Request) service.Outcome
}

// TrustSource supplies the current signed trust list.
type TrustSource interface {
	Current(ctx context.Context) (trust.TrustList, error)
}

const defaultLanguage = "en"

type Handler struct {
	validator      Validator
	trust          TrustSource
	anchor         trust.Anchor
	defaultCountry string
	logger         *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithDefaultCountry applies when neither the request nor the token names a
// country.
func WithDefaultCountry(country string) Option {
	return func(h *Handler) {
		h.defaultCountry = country
	}
}

func New(validator Validator, source TrustSource, anchor trust.Anchor, opts ...Option) *Handler {
	if validator == nil {
		panic("handler.New: validator is required")
	}
	if source == nil {
		panic("handler.New: trust source is required")
	}
	h := &Handler{
		validator: validator,
		trust:     source,
		anchor:    anchor,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/greenlight/validate", h.HandleValidate)
}

// HandleValidate implements POST /greenlight/validate.
// Input: { "hcert": "HC1:...", "jurisdiction": { "country": "AT", "region": "W" } }
// Output: 201 valid, 422 rule failures, 403 identity mismatch, 500 decode or trust failure.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxBodySize)
	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.trust.Current(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "trust list unavailable",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "trust list unavailable"))
		return
	}

	country, region := h.jurisdiction(req, principal)
	out := h.validator.Validate(ctx, service.Request{
		Certificate:    req.HCert,
		ReferenceClock: requestcontext.Now(ctx),
		Bundle:         service.Bundle{Anchor: h.anchor, TrustList: list},
		Person: service.Person{
			Person: identity.Person{
				FirstName:   principal.FirstName,
				LastName:    principal.LastName,
				DateOfBirth: principal.DateOfBirth,
			},
			Country: country,
			Region:  region,
			Subject: principal.Subject,
		},
	})
	h.writeOutcome(w, r, out)
}

func (h *Handler) jurisdiction(req *ValidateRequest, p requestcontext.Principal) (string, string) {
	switch {
	case req.Jurisdiction != nil:
		return req.Jurisdiction.Country, req.Jurisdiction.Region
	case p.Country != "":
		return p.Country, p.Region
	default:
		return h.defaultCountry, ""
	}
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, out service.Outcome) {
	switch o := out.(type) {
	case service.Valid:
		resp := ValidResponse{
			FirstName:           o.Person.FirstName,
			LastName:            o.Person.LastName,
			DateOfBirth:         o.Person.DateOfBirth,
			ValidUntilUnbounded: o.Unbounded,
		}
		if !o.Unbounded {
			until := o.ValidUntil.UTC()
			resp.ValidUntil = &until
		}
		httputil.WriteJSON(w, http.StatusCreated, resp)
	case service.Invalid:
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, InvalidResponse{
			Error:    "certificate_invalid",
			Messages: o.Messages(preferredLanguage(r)),
		})
	case service.IdentityMismatch:
		httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{Error: "identity_mismatch"})
	case service.DecodeOrTrustError:
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
			Error:            "internal_error",
			ErrorDescription: o.Error(),
		})
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "unknown validation outcome"))
	}
}

// preferredLanguage picks the base language of the first Accept-Language tag.
func preferredLanguage(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return defaultLanguage
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return defaultLanguage
	}
	return base.String()
}
