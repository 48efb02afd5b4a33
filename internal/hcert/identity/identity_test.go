package identity

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type IdentitySuite struct {
	suite.Suite
	matcher *Matcher
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) SetupTest() {
	s.matcher = NewMatcher()
}

func (s *IdentitySuite) TestCompareBirthdates() {
	cases := []struct {
		a, b string
		tier Tier
		ok   bool
	}{
		{"2000-05-17", "2000-05-17", TierFull, true},
		{"2000-05-17", "2000-06-17", TierNone, false},
		{"2000", "2000-06-17", 1, true},
		{"", "2000-05-17", TierNone, true},
		{"2000-05-17", "", TierNone, true},
		{"2000-05-17", "2000-05-18", TierNone, false},
		{"2000-05-17", "2001-05-17", TierNone, false},
		{"2000-05", "2000-05-17", 2, true},
		{"2000-XX-XX", "2000-05-17", 1, true},
		{"2000-05-17T00:00:00", "2000-05-17", TierFull, true},
		{"2000-5-7", "2000-05-07", TierFull, true},
	}
	for _, tc := range cases {
		tier, ok := CompareBirthdates(tc.a, tc.b)
		s.Equal(tc.ok, ok, "%q vs %q", tc.a, tc.b)
		s.Equal(tc.tier, tier, "%q vs %q", tc.a, tc.b)
	}
}

func (s *IdentitySuite) TestDiceSimilarity() {
	s.Equal(float64(100), DiceSimilarity("Muster", "Muster"))
	s.Equal(float64(80), DiceSimilarity("healed", "sealed"))
	s.Equal(float64(0), DiceSimilarity("Anna", "Maria"))
	s.Equal(float64(0), DiceSimilarity("a", "ab"))
	s.Equal(float64(100), DiceSimilarity("MÜLLER", "müller"), "case folded")
	s.Equal(float64(100), DiceSimilarity("Mu\u0308ller", "M\u00fcller"), "NFC normalized")
	s.Equal(float64(100), DiceSimilarity("van der Berg", "vanderberg"), "whitespace ignored")
}

func (s *IdentitySuite) TestSecondTokenPermutation() {
	r := s.matcher.Match(
		Person{FirstName: "Anna Maria", LastName: "Muster", DateOfBirth: "1990-05-17"},
		Person{FirstName: "Maria", LastName: "Muster", DateOfBirth: "1990-05-17"},
	)
	s.True(r.Matched)
	s.Equal(TierFull, r.tier)

	r = s.matcher.Match(
		Person{FirstName: "Maria", LastName: "Muster", DateOfBirth: "1990-05-17"},
		Person{FirstName: "Anna Maria", LastName: "Muster", DateOfBirth: "1990-05-17"},
	)
	s.True(r.Matched, "authenticated side tokens are permuted too")
}

func (s *IdentitySuite) TestMatch() {
	cases := []struct {
		name          string
		claimed, auth Person
		want          bool
	}{
		{
			"exact",
			Person{"Max", "Mustermann", "1985-01-02"},
			Person{"Max", "Mustermann", "1985-01-02"},
			true,
		},
		{
			"birth date contradiction rejects regardless of names",
			Person{"Max", "Mustermann", "1985-01-02"},
			Person{"Max", "Mustermann", "1985-01-03"},
			false,
		},
		{
			"empty claim first name skips the first name check",
			Person{"", "Mustermann", "1985-01-02"},
			Person{"Moritz", "Mustermann", "1985-01-02"},
			true,
		},
		{
			"different first name",
			Person{"Moritz", "Mustermann", "1985-01-02"},
			Person{"Max", "Mustermann", "1985-01-02"},
			false,
		},
		{
			"different last name",
			Person{"Max", "Schmidt", "1985-01-02"},
			Person{"Max", "Mustermann", "1985-01-02"},
			false,
		},
		{
			"typo tolerated with full birth date",
			Person{"Max", "Mustermann", "1985-01-02"},
			Person{"Max", "Mustermam", "1985-01-02"},
			true,
		},
		{
			"partial birth date relaxes the threshold",
			// Dice("Musterfrau", "Mustermann") = 2*5/18*100 = 55.6
			Person{"Erika", "Musterfrau", "1985"},
			Person{"Erika", "Mustermann", "1985-01-02"},
			true,
		},
		{
			"full birth date demands the strict threshold",
			Person{"Erika", "Musterfrau", "1985-01-02"},
			Person{"Erika", "Mustermann", "1985-01-02"},
			false,
		},
		{
			"missing authenticated first name",
			Person{"Max", "Mustermann", "1985-01-02"},
			Person{"", "Mustermann", "1985-01-02"},
			false,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, s.matcher.Match(tc.claimed, tc.auth).Matched)
		})
	}
}

func (s *IdentitySuite) TestPluggableSimilarityAndPolicy() {
	calls := 0
	always := func(a, b string) float64 {
		calls++
		return 100
	}
	m := NewMatcher(WithSimilarity(always))
	r := m.Match(Person{"A B", "C", "2000"}, Person{"X", "Y", "2000"})
	s.True(r.Matched)
	s.Equal(2, calls, "first matching pair ends the first name search")

	strict := NewMatcher(WithPolicy(Policy{StrictThreshold: 100, RelaxedThreshold: 100, StrictTier: TierFull}))
	s.False(strict.Match(Person{"Max", "Mustermann", ""}, Person{"Max", "Mustermam", ""}).Matched)
}

func (s *IdentitySuite) TestPolicy() {
	p := DefaultPolicy()
	s.NoError(p.Validate())
	s.Equal(float64(80), p.Threshold(TierFull))
	s.Equal(float64(50), p.Threshold(2))
	s.Equal(float64(50), p.Threshold(TierNone))

	s.Error(Policy{StrictThreshold: 101, RelaxedThreshold: 50, StrictTier: TierFull}.Validate())
	s.Error(Policy{StrictThreshold: 80, RelaxedThreshold: -1, StrictTier: TierFull}.Validate())
	s.Error(Policy{StrictThreshold: 80, RelaxedThreshold: 50, StrictTier: 4}.Validate())
}
