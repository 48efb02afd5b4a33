package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Similarity scores two strings from 0 (unrelated) to 100 (identical).
// Implementations must be symmetric.
type Similarity func(a, b string) float64

var folder = cases.Fold()

// DiceSimilarity is the Sørensen–Dice coefficient over character bigrams,
// scaled to 0–100. Whitespace is ignored; names are NFC-normalized and
// case-folded first.
func DiceSimilarity(a, b string) float64 {
	ra, rb := normalizeName(a), normalizeName(b)
	if string(ra) == string(rb) {
		return 100
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}
	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i+1 < len(ra); i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}
	shared := 0
	for i := 0; i+1 < len(rb); i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if bigrams[bg] > 0 {
			bigrams[bg]--
			shared++
		}
	}
	return 200 * float64(shared) / float64(len(ra)+len(rb)-2)
}

func normalizeName(s string) []rune {
	s = folder.String(norm.NFC.String(s))
	return []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}
