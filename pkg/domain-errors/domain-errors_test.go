package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorMessage() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeUntrusted, Message: "rules signature invalid"}
		s.Equal("rules signature invalid", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeExpired}
		s.Equal("outside_window", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIs() {
	s.Run("matches by code only", func() {
		a := &Error{Code: CodeNotFound, Message: "value set not found"}
		b := &Error{Code: CodeNotFound, Message: "rule not found"}
		s.True(a.Is(b))
	})

	s.Run("does not match other codes or plain errors", func() {
		a := &Error{Code: CodeNotFound}
		s.False(a.Is(&Error{Code: CodeInternal}))
		s.False(a.Is(errors.New("not found")))
	})

	s.Run("walks the chain", func() {
		inner := &Error{Code: CodeUntrusted, Message: "bad signature"}
		outer := fmt.Errorf("load rules: %w", inner)
		s.True(errors.Is(outer, &Error{Code: CodeUntrusted}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves existing domain code", func() {
		inner := New(CodeExpired, "bundle expired")
		wrapped := Wrap(inner, CodeInternal, "load value sets")
		s.True(HasCode(wrapped, CodeExpired))
		s.Equal("load value sets", wrapped.Error())
		s.ErrorIs(wrapped, inner)
	})

	s.Run("applies code to plain errors", func() {
		wrapped := Wrap(errors.New("connection refused"), CodeUnavailable, "trust list fetch failed")
		s.True(HasCode(wrapped, CodeUnavailable))
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeValidation, CodeOf(New(CodeValidation, "bad")))
	s.Equal(CodeInternal, CodeOf(errors.New("plain")))
	s.Equal(CodeInternal, CodeOf(nil))
}
