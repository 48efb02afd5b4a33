package valueset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"greenlight/internal/hcert/validity"
	dErrors "greenlight/pkg/domain-errors"
)

type ValueSetSuite struct {
	suite.Suite
}

func TestValueSetSuite(t *testing.T) {
	suite.Run(t, new(ValueSetSuite))
}

func (s *ValueSetSuite) TestNew() {
	s.Run("deduplicates values keeping order", func() {
		vs, err := New("covid-19-lab-test-type", []string{"LP6464-4", "LP217198-3", "LP6464-4"}, validity.Always)
		s.Require().NoError(err)
		s.Equal([]string{"LP6464-4", "LP217198-3"}, vs.Values())
		s.True(vs.Contains("LP217198-3"))
		s.False(vs.Contains("lp217198-3"))
	})

	s.Run("requires an id", func() {
		_, err := New("  ", nil, validity.Always)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("values copy is detached", func() {
		vs, _ := New("x", []string{"a"}, validity.Always)
		got := vs.Values()
		got[0] = "b"
		s.Equal([]string{"a"}, vs.Values())
	})
}

func (s *ValueSetSuite) TestCollection() {
	pcr, _ := New("accepted-test-types", []string{"PCR"}, validity.Always)
	vac, _ := New("vaccines", []string{"EU/1/20/1528"}, validity.Always)

	s.Run("rejects duplicate ids", func() {
		_, err := NewCollection(validity.Always, pcr, pcr)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("looks up by id", func() {
		c, err := NewCollection(validity.Always, vac, pcr)
		s.Require().NoError(err)
		s.Equal(2, c.Len())
		got, ok := c.Get("vaccines")
		s.True(ok)
		s.Equal("vaccines", got.ID())
		_, ok = c.Get("missing")
		s.False(ok)
		s.Equal([]string{"accepted-test-types", "vaccines"}, c.IDs())
	})

	s.Run("for logic expands to arrays", func() {
		c, _ := NewCollection(validity.Always, pcr)
		s.Equal(map[string]any{"accepted-test-types": []any{"PCR"}}, c.ForLogic())
	})

	s.Run("zero collection is empty", func() {
		var c Collection
		s.Equal(0, c.Len())
		s.Empty(c.ForLogic())
		s.Equal(0, c.ActiveAt(time.Now()).Len())
	})
}

func (s *ValueSetSuite) TestActiveAt() {
	cut := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)
	old, _ := New("accepted-test-types", []string{"PCR", "Antigen"}, validity.Window{Until: cut})
	next, _ := New("vaccines", []string{"EU/1/20/1528"}, validity.Window{From: cut})
	c, err := NewCollection(validity.Always, old, next)
	s.Require().NoError(err)

	before := c.ActiveAt(cut.Add(-time.Hour))
	s.Equal([]string{"accepted-test-types"}, before.IDs())

	after := c.ActiveAt(cut)
	s.Equal([]string{"vaccines"}, after.IDs())
	_, ok := after.Get("accepted-test-types")
	s.False(ok)
}
