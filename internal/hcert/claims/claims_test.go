package claims

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "greenlight/pkg/domain-errors"
)

type ClaimsSuite struct {
	suite.Suite
}

func TestClaimsSuite(t *testing.T) {
	suite.Run(t, new(ClaimsSuite))
}

func testDocument() map[string]any {
	return map[string]any{
		"ver": "1.3.0",
		"nam": map[string]any{"fn": "Musterfrau", "gn": "Gabriele", "fnt": "MUSTERFRAU", "gnt": "GABRIELE"},
		"dob": "1998-02-26",
		"t": []any{
			map[string]any{"tg": "840539006", "tt": "LP6464-4", "co": "at", "sc": "2021-05-30T10:12:22Z"},
		},
	}
}

func (s *ClaimsSuite) TestFromDocument() {
	s.Run("extracts named fields", func() {
		c, err := FromDocument(testDocument())
		s.Require().NoError(err)
		s.Equal("Gabriele", c.FirstName())
		s.Equal("Musterfrau", c.LastName())
		s.Equal("1998-02-26", c.DateOfBirth())
		s.Equal("AT", c.IssuingCountry())
		s.Equal("t", c.Kind())
	})

	s.Run("falls back to transliterated names", func() {
		doc := testDocument()
		doc["nam"] = map[string]any{"fnt": "DOE", "gnt": ""}
		c, err := FromDocument(doc)
		s.Require().NoError(err)
		s.Equal("", c.FirstName())
		s.Equal("DOE", c.LastName())
	})

	s.Run("rejects documents without holder name", func() {
		_, err := FromDocument(map[string]any{"dob": "1990"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = FromDocument(nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = FromDocument(map[string]any{"nam": map[string]any{}})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ClaimsSuite) TestPayloadIsNotShared() {
	doc := testDocument()
	c, err := FromDocument(doc)
	s.Require().NoError(err)

	// mutate the source document and a returned copy
	doc["dob"] = "2000-01-01"
	p := c.Payload()
	p["t"].([]any)[0].(map[string]any)["tt"] = "changed"

	again := c.Payload()
	s.Equal("1998-02-26", again["dob"])
	s.Equal("LP6464-4", again["t"].([]any)[0].(map[string]any)["tt"])
}

func (s *ClaimsSuite) TestNewWithNilPayload() {
	c := New(" Max ", "Muster", "1990", "at", nil)
	s.Equal("Max", c.FirstName())
	s.Equal("AT", c.IssuingCountry())
	s.NotNil(c.Payload())
	s.Empty(c.Kind())
}
