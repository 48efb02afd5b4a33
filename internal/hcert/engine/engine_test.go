package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"greenlight/internal/hcert/claims"
	"greenlight/internal/hcert/logic"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/validity"
	"greenlight/internal/hcert/valueset"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
	now    time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = New()
	s.now = time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) rule(id, src string) rules.Rule {
	expr, err := logic.Parse(src)
	s.Require().NoError(err)
	return rules.Rule{
		Identifier:   id,
		Country:      "AT",
		Descriptions: []rules.Description{{Lang: "en", Text: id + " failed"}, {Lang: "de", Text: id + " fehlgeschlagen"}},
		Logic:        expr,
	}
}

func testClaims(testType string) claims.Claims {
	return claims.New("Max", "Muster", "1990-01-01", "AT", map[string]any{
		"testType": testType,
		"t":        []any{map[string]any{"sc": "2021-06-01T08:00:00Z"}},
	})
}

func testValueSets(s *EngineSuite) valueset.Collection {
	vs, err := valueset.New("accepted-test-types", []string{"PCR"}, validity.Always)
	s.Require().NoError(err)
	c, err := valueset.NewCollection(validity.Always, vs)
	s.Require().NoError(err)
	return c
}

func (s *EngineSuite) TestVacuousTruth() {
	for _, at := range []time.Time{{}, s.now, time.Date(9000, 1, 1, 0, 0, 0, 0, time.UTC)} {
		v := s.engine.Evaluate(testClaims("whatever"), rules.RuleSet{}, valueset.Collection{}, at, at)
		s.True(v.Valid())
		s.Empty(v.Failures())
		s.Empty(v.Messages("en"))
	}
}

func (s *EngineSuite) TestMembership() {
	set := rules.NewRuleSet(validity.Always, s.rule("GR-AT-0001", "payload.testType in valueSets.accepted-test-types"))

	s.Run("accepted", func() {
		v := s.engine.Evaluate(testClaims("PCR"), set, testValueSets(s), s.now, s.now)
		s.True(v.Valid())
	})

	s.Run("rejected with one localized failure", func() {
		v := s.engine.Evaluate(testClaims("Antigen"), set, testValueSets(s), s.now, s.now)
		s.False(v.Valid())
		s.Require().Len(v.Failures(), 1)
		s.Equal([]string{"[GR-AT-0001] GR-AT-0001 failed"}, v.Messages("en"))
		s.Equal([]string{"[GR-AT-0001] GR-AT-0001 fehlgeschlagen"}, v.Messages("de"))
		s.Equal([]string{"[GR-AT-0001] GR-AT-0001 failed"}, v.Messages("fr"), "falls back to English")
		s.Nil(v.Failures()[0].Fault)
	})
}

func (s *EngineSuite) TestRulesOutsideWindowNeverFail() {
	failing := s.rule("GR-AT-0002", "false")
	failing.ValidFrom = s.now.Add(time.Hour)
	expired := s.rule("GR-AT-0003", "false")
	expired.ValidTo = s.now
	set := rules.NewRuleSet(validity.Always, failing, expired)

	v := s.engine.Evaluate(testClaims("PCR"), set, testValueSets(s), s.now, s.now)
	s.True(v.Valid())

	v = s.engine.Evaluate(testClaims("PCR"), set, testValueSets(s), s.now, s.now.Add(2*time.Hour))
	s.Equal([]string{"GR-AT-0002"}, failureIDs(v))
}

func (s *EngineSuite) TestNoShortCircuit() {
	set := rules.NewRuleSet(validity.Always,
		s.rule("R1", "false"),
		s.rule("R2", "payload.testType in valueSets.undefined-set"),
		s.rule("R3", "true"),
		s.rule("R4", `"yes"`),
	)
	v := s.engine.Evaluate(testClaims("PCR"), set, testValueSets(s), s.now, s.now)

	s.False(v.Valid())
	s.Equal([]string{"R1", "R2", "R4"}, failureIDs(v), "non-boolean results fail, order is preserved")
	fs := v.Failures()
	s.Nil(fs[0].Fault)
	var evalErr *logic.EvalError
	s.ErrorAs(fs[1].Fault, &evalErr, "undefined value set is an evaluation fault")
	s.Nil(fs[2].Fault)
}

func (s *EngineSuite) TestValueSetsOutsideWindowAreHidden() {
	vs, err := valueset.New("accepted-test-types", []string{"PCR"}, validity.Window{Until: s.now})
	s.Require().NoError(err)
	c, err := valueset.NewCollection(validity.Always, vs)
	s.Require().NoError(err)
	set := rules.NewRuleSet(validity.Always, s.rule("GR-AT-0001", "payload.testType in valueSets.accepted-test-types"))

	s.True(s.engine.Evaluate(testClaims("PCR"), set, c, s.now, s.now.Add(-time.Second)).Valid())
	s.False(s.engine.Evaluate(testClaims("PCR"), set, c, s.now, s.now).Valid())
}

func (s *EngineSuite) TestDeterministic() {
	set := rules.NewRuleSet(validity.Always,
		s.rule("R1", "payload.testType in valueSets.accepted-test-types"),
		s.rule("R2", `validationClock before plusTime(payload.t.0.sc, 1, "hour")`),
	)
	c := testClaims("Antigen")
	first := s.engine.Evaluate(c, set, testValueSets(s), s.now, s.now)
	second := s.engine.Evaluate(c, set, testValueSets(s), s.now, s.now)
	s.Equal(first, second)
	s.Equal("Antigen", c.Payload()["testType"], "claims are not mutated")
}

func (s *EngineSuite) TestFindExpiryNotValid() {
	set := rules.NewRuleSet(validity.Always, s.rule("GR-AT-0001", "payload.testType in valueSets.accepted-test-types"))
	_, ok := s.engine.FindExpiry(testClaims("Antigen"), set, testValueSets(s), s.now)
	s.False(ok)
}

func (s *EngineSuite) TestFindExpiryBoundaryPrecision() {
	cutover := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	set := rules.NewRuleSet(validity.Always, s.rule("GR-AT-0001", `validationClock before "2030-01-01T00:00:00Z"`))
	c := testClaims("PCR")

	exp, ok := s.engine.FindExpiry(c, set, testValueSets(s), s.now)
	s.Require().True(ok)
	s.False(exp.Unbounded)
	s.True(cutover.Add(-Resolution).Equal(exp.At), exp.At)
	s.True(s.engine.Evaluate(c, set, testValueSets(s), exp.At, s.now).Valid())
	s.False(s.engine.Evaluate(c, set, testValueSets(s), exp.At.Add(Resolution), s.now).Valid())
}

func (s *EngineSuite) TestFindExpiryTestCertificate() {
	set := rules.NewRuleSet(validity.Always,
		s.rule("TR-AT-0001", `validationClock not-after plusTime(payload.t.0.sc, 72, "hour")`),
	)
	exp, ok := s.engine.FindExpiry(testClaims("PCR"), set, testValueSets(s), s.now)
	s.Require().True(ok)
	s.True(time.Date(2021, 6, 4, 8, 0, 0, 0, time.UTC).Equal(exp.At), exp.At)
}

func (s *EngineSuite) TestFindExpiryUnbounded() {
	set := rules.NewRuleSet(validity.Always, s.rule("GR-AT-0001", "payload.testType in valueSets.accepted-test-types"))
	exp, ok := s.engine.FindExpiry(testClaims("PCR"), set, testValueSets(s), s.now)
	s.Require().True(ok)
	s.True(exp.Unbounded)
	s.True(exp.At.After(s.now.AddDate(1000, 0, 0)))
	s.False(exp.At.After(latestInstant))
}

func (s *EngineSuite) TestFindExpiryKeepsRuleGeneration() {
	cut := s.now.Add(48 * time.Hour)
	current := s.rule("GR-AT-0001", "true")
	current.ValidTo = cut
	next := s.rule("GR-AT-0001", "false")
	next.ValidFrom = cut
	set := rules.NewRuleSet(validity.Always, current, next)

	exp, ok := s.engine.FindExpiry(testClaims("PCR"), set, testValueSets(s), s.now)
	s.Require().True(ok)
	s.True(exp.Unbounded, "the generation selected at knownValidAt is used for every probe")
}

func (s *EngineSuite) TestFindExpiryPreservesSubMillisecondBase() {
	base := s.now.Add(123456 * time.Nanosecond)
	s.True(base.Add(3 * Resolution).Equal(probe(base, 3)))
	far := base.AddDate(1000, 0, 0)
	s.True(far.Equal(probe(base, far.UnixMilli()-base.UnixMilli())))
}

func failureIDs(v Verdict) []string {
	out := make([]string, 0, len(v.Failures()))
	for _, f := range v.Failures() {
		out = append(out, f.RuleID)
	}
	return out
}
