package validation

import (
	"fmt"

	dErrors "greenlight/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB).
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	// MaxCertificateLength bounds the compact HC1 string. Real certificates
	// stay well under 4 KB even with several entries.
	MaxCertificateLength = 8 * 1024

	// MaxRegionLength is the maximum length of a jurisdiction region code.
	MaxRegionLength = 32
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckExactLength validates that a string has exactly n bytes, as country
// codes must.
func CheckExactLength(fieldName, value string, n int) error {
	if len(value) != n {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be exactly %d characters", fieldName, n))
	}
	return nil
}
