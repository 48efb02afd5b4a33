package identity

import "strings"

// Tier counts the birth date fields (day, month, year) that were present on
// both sides and agreed. TierFull means all three did.
type Tier int

const (
	TierNone Tier = 0
	TierFull Tier = 3
)

type birthdate struct {
	year, month, day string
}

// splitBirthdate reads YYYY, YYYY-MM or YYYY-MM-DD, ignoring any time part.
// Empty and "XX" components are absent.
func splitBirthdate(s string) birthdate {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	field := func(i int) string {
		if i >= len(parts) {
			return ""
		}
		p := strings.TrimSpace(parts[i])
		if strings.EqualFold(p, "XX") || strings.EqualFold(p, "XXXX") {
			return ""
		}
		if trimmed := strings.TrimLeft(p, "0"); trimmed != "" {
			return trimmed
		}
		return p
	}
	return birthdate{year: field(0), month: field(1), day: field(2)}
}

// CompareBirthdates compares two possibly partial birth dates. A component
// missing on either side is not compared. A present mismatch on day, month or
// year (checked in that order) rejects. If either date is empty the comparison
// passes with TierNone.
func CompareBirthdates(a, b string) (Tier, bool) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return TierNone, true
	}
	da, db := splitBirthdate(a), splitBirthdate(b)
	tier := TierNone
	for _, pair := range [][2]string{{da.day, db.day}, {da.month, db.month}, {da.year, db.year}} {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		if pair[0] != pair[1] {
			return TierNone, false
		}
		tier++
	}
	return tier, true
}
