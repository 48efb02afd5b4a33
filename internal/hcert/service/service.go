// Package service is the validation facade: it decodes a certificate, loads
// the signed trust bundle, evaluates business rules for the person's
// jurisdiction, binds the certificate to the person and estimates expiry.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"greenlight/internal/hcert/claims"
	"greenlight/internal/hcert/engine"
	"greenlight/internal/hcert/identity"
	"greenlight/internal/hcert/metrics"
	"greenlight/internal/hcert/ports"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/tracer"
	"greenlight/internal/hcert/valueset"
	dErrors "greenlight/pkg/domain-errors"
)

// Validator is safe for concurrent use. It holds no per-call state.
type Validator struct {
	decoder ports.Decoder
	trust   ports.TrustVerifier
	auditor ports.AuditPublisher
	engine  *engine.Engine
	matcher *identity.Matcher
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

type Option func(*Validator)

func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(v *Validator) {
		v.tracer = t
	}
}

// WithAuditor records every outcome. Audit failures are logged and never
// change the outcome.
func WithAuditor(a ports.AuditPublisher) Option {
	return func(v *Validator) {
		v.auditor = a
	}
}

func WithEngine(e *engine.Engine) Option {
	return func(v *Validator) {
		v.engine = e
	}
}

func WithMatcher(m *identity.Matcher) Option {
	return func(v *Validator) {
		v.matcher = m
	}
}

// New panics if a required collaborator is missing.
func New(decoder ports.Decoder, trust ports.TrustVerifier, opts ...Option) *Validator {
	if decoder == nil {
		panic("service.New: decoder is required")
	}
	if trust == nil {
		panic("service.New: trust verifier is required")
	}
	v := &Validator{decoder: decoder, trust: trust}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}
	if v.engine == nil {
		v.engine = engine.New(engine.WithLogger(v.logger))
	}
	if v.matcher == nil {
		v.matcher = identity.NewMatcher()
	}
	if v.tracer == nil {
		v.tracer = tracer.NewNoop()
	}
	return v
}

// loaded is what the decode and trust steps produce for one call.
type loaded struct {
	claims    claims.Claims
	rules     rules.RuleSet
	valueSets valueset.Collection
}

// Validate never returns nil.
func (v *Validator) Validate(ctx context.Context, req Request) Outcome {
	start := time.Now()
	country := strings.ToUpper(strings.TrimSpace(req.Person.Country))
	region := strings.TrimSpace(req.Person.Region)

	ctx, span := v.tracer.Start(ctx, tracer.SpanValidate,
		tracer.String(tracer.AttrCertificate, tracer.Fingerprint(req.Certificate)),
		tracer.String(tracer.AttrCountry, country),
		tracer.String(tracer.AttrRegion, region),
	)

	out := v.validate(ctx, req, country, region)

	name := Name(out)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, name))
	var spanErr error
	if e, ok := out.(DecodeOrTrustError); ok {
		spanErr = e.Err
	}
	span.End(spanErr)

	if v.metrics != nil {
		v.metrics.ObserveValidation(name, time.Since(start))
	}
	v.logOutcome(ctx, out, country)
	v.emitAudit(ctx, req, out, country, region)
	return out
}

func (v *Validator) validate(ctx context.Context, req Request, country, region string) Outcome {
	in, err := v.load(ctx, req)
	if err != nil {
		return DecodeOrTrustError{Err: err}
	}

	set := in.rules.Filter(country, region)
	verdict := v.evaluate(ctx, in, set, req.ReferenceClock)
	if !verdict.Valid() {
		return Invalid{Failures: verdict.Failures()}
	}

	holder := identity.Person{
		FirstName:   in.claims.FirstName(),
		LastName:    in.claims.LastName(),
		DateOfBirth: in.claims.DateOfBirth(),
	}
	if !v.matcher.Match(holder, req.Person.Person).Matched {
		return IdentityMismatch{}
	}

	_, span := v.tracer.Start(ctx, tracer.SpanFindExpiry)
	expiry, ok := v.engine.FindExpiry(in.claims, set, in.valueSets, req.ReferenceClock)
	span.SetAttributes(tracer.Bool(tracer.AttrUnbounded, expiry.Unbounded))
	span.End(nil)
	if !ok {
		// Evaluate just accepted the same inputs at the same clock.
		return DecodeOrTrustError{Err: dErrors.New(dErrors.CodeInvariantViolation, "certificate valid but no expiry found")}
	}
	return Valid{Person: holder, ValidUntil: expiry.At, Unbounded: expiry.Unbounded}
}

// load decodes the certificate and verifies both bundles concurrently.
func (v *Validator) load(ctx context.Context, req Request) (loaded, error) {
	if req.Bundle.Anchor.IsZero() {
		return loaded{}, dErrors.New(dErrors.CodeUntrusted, "trust anchor is not configured")
	}
	if err := req.Bundle.TrustList.Validate(); err != nil {
		return loaded{}, err
	}

	var in loaded
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctx, span := v.tracer.Start(gctx, tracer.SpanDecode)
		c, err := v.decoder.Decode(ctx, req.Certificate)
		span.End(err)
		if err != nil {
			return err
		}
		in.claims = c
		return nil
	})
	g.Go(func() error {
		ctx, span := v.tracer.Start(gctx, tracer.SpanLoadTrust, tracer.String(tracer.AttrSource, "rules"))
		_, set, err := v.trust.LoadBusinessRules(ctx, req.Bundle.Anchor,
			req.Bundle.TrustList.Rules, req.Bundle.TrustList.RulesSignature, req.ReferenceClock)
		span.End(err)
		if err != nil {
			return err
		}
		in.rules = set
		return nil
	})
	g.Go(func() error {
		ctx, span := v.tracer.Start(gctx, tracer.SpanLoadTrust, tracer.String(tracer.AttrSource, "valuesets"))
		_, sets, err := v.trust.LoadValueSets(ctx, req.Bundle.Anchor,
			req.Bundle.TrustList.ValueSets, req.Bundle.TrustList.ValueSetsSignature, req.ReferenceClock)
		span.End(err)
		if err != nil {
			return err
		}
		in.valueSets = sets
		return nil
	})
	if err := g.Wait(); err != nil {
		return loaded{}, err
	}
	return in, nil
}

func (v *Validator) evaluate(ctx context.Context, in loaded, set rules.RuleSet, at time.Time) engine.Verdict {
	_, span := v.tracer.Start(ctx, tracer.SpanEvaluate, tracer.Int(tracer.AttrRuleCount, set.Len()))
	verdict := v.engine.Evaluate(in.claims, set, in.valueSets, at, at)
	failures := verdict.Failures()
	span.SetAttributes(tracer.Int(tracer.AttrFailures, len(failures)))
	span.End(nil)

	if v.metrics != nil {
		for _, f := range failures {
			v.metrics.IncrementRuleFailure(f.RuleID, f.Fault != nil)
		}
	}
	return verdict
}

func (v *Validator) logOutcome(ctx context.Context, out Outcome, country string) {
	switch o := out.(type) {
	case DecodeOrTrustError:
		v.logger.WarnContext(ctx, "certificate could not be validated",
			"outcome", Name(out),
			"country", country,
			"error", o.Err,
		)
	case Invalid:
		v.logger.InfoContext(ctx, "certificate rejected by business rules",
			"outcome", Name(out),
			"country", country,
			"failures", len(o.Failures),
		)
	default:
		v.logger.InfoContext(ctx, "certificate validated",
			"outcome", Name(out),
			"country", country,
		)
	}
}
