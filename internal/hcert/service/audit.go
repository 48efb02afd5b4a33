package service

import (
	"context"
	"strings"

	"greenlight/internal/hcert/tracer"
	"greenlight/pkg/platform/audit"
	"greenlight/pkg/platform/privacy"
	"greenlight/pkg/requestcontext"
)

// maxReasonLength bounds the reason column.
const maxReasonLength = 512

// emitAudit records the outcome. It is fail-open.
func (v *Validator) emitAudit(ctx context.Context, req Request, out Outcome, country, region string) {
	if v.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp:   requestcontext.Now(ctx),
		Action:      audit.ActionCertificateValidated,
		Outcome:     Name(out),
		Subject:     req.Person.Subject,
		Certificate: tracer.Fingerprint(req.Certificate),
		Country:     country,
		Region:      region,
		RequestID:   requestcontext.RequestID(ctx),
		ClientIP:    privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
		Device:      requestcontext.Device(ctx),
	}
	switch o := out.(type) {
	case Valid:
		if !o.Unbounded {
			event.ValidUntil = o.ValidUntil
		}
	case Invalid:
		ids := make([]string, len(o.Failures))
		for i, f := range o.Failures {
			ids[i] = f.RuleID
		}
		event.Reason = truncate(strings.Join(ids, ","))
	case DecodeOrTrustError:
		event.Reason = truncate(o.Error())
	}

	if err := v.auditor.Emit(ctx, event); err != nil {
		v.logger.WarnContext(ctx, "failed to emit audit event",
			"outcome", event.Outcome,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

func truncate(s string) string {
	if len(s) <= maxReasonLength {
		return s
	}
	return s[:maxReasonLength]
}
