package handler

import (
	"strings"
	"time"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/validation"
)

// ValidateRequest is the body of POST /greenlight/validate.
type ValidateRequest struct {
	HCert        string        `json:"hcert"`
	Jurisdiction *Jurisdiction `json:"jurisdiction,omitempty"`
}

// Jurisdiction overrides the country and region of the person's token.
type Jurisdiction struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
}

func (r *ValidateRequest) Normalize() {
	r.HCert = strings.TrimSpace(r.HCert)
	if r.Jurisdiction != nil {
		r.Jurisdiction.Country = strings.ToUpper(strings.TrimSpace(r.Jurisdiction.Country))
		r.Jurisdiction.Region = strings.TrimSpace(r.Jurisdiction.Region)
	}
}

func (r *ValidateRequest) Validate() error {
	if r.HCert == "" {
		return dErrors.New(dErrors.CodeValidation, "hcert is required")
	}
	if err := validation.CheckStringLength("hcert", r.HCert, validation.MaxCertificateLength); err != nil {
		return err
	}
	if r.Jurisdiction != nil {
		if err := validation.CheckExactLength("jurisdiction country", r.Jurisdiction.Country, 2); err != nil {
			return err
		}
		if err := validation.CheckStringLength("jurisdiction region", r.Jurisdiction.Region, validation.MaxRegionLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidResponse is returned with 201.
type ValidResponse struct {
	FirstName           string     `json:"firstname"`
	LastName            string     `json:"lastname"`
	DateOfBirth         string     `json:"dob"`
	ValidUntil          *time.Time `json:"valid_until,omitempty"`
	ValidUntilUnbounded bool       `json:"valid_until_unbounded"`
}

// InvalidResponse is returned with 422.
type InvalidResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}
