package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "greenlight/pkg/domain-errors"
)

// LimitsSuite tests the validation helper functions.
//
// The invariants "max+1 must fail" and "max must pass" guard the request
// boundary.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes when length equals max", func() {
		err := CheckStringLength("hcert", strings.Repeat("a", 100), 100)
		s.NoError(err)
	})

	s.Run("passes when length is below max", func() {
		err := CheckStringLength("hcert", "HC1:short", 100)
		s.NoError(err)
	})

	s.Run("passes for empty string", func() {
		s.NoError(CheckStringLength("region", "", MaxRegionLength))
	})

	s.Run("fails when length exceeds max", func() {
		err := CheckStringLength("hcert", strings.Repeat("a", MaxCertificateLength+1), MaxCertificateLength)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "hcert exceeds max length of 8192")
	})
}

func (s *LimitsSuite) TestCheckExactLength() {
	s.Run("passes for two-letter country", func() {
		s.NoError(CheckExactLength("jurisdiction country", "AT", 2))
	})

	s.Run("fails for short and long values", func() {
		for _, v := range []string{"", "A", "AUT"} {
			err := CheckExactLength("jurisdiction country", v, 2)
			s.Require().Error(err, v)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Contains(err.Error(), "must be exactly 2 characters")
		}
	})
}
