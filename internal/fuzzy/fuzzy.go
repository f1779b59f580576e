// Package fuzzy scores how close a guess is to a canonical answer.
//
// Scores are integers in [0,100]. Acceptance thresholds belong to the caller.
package fuzzy

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher returns the similarity of two already normalised strings.
type Matcher func(a, b string) int

// Mode names a Matcher for configuration.
type Mode string

const (
	ModeRatio   Mode = "ratio"
	ModePartial Mode = "partial"
)

// ForMode resolves a configured mode name.
func ForMode(mode Mode) (Matcher, error) {
	switch mode {
	case ModeRatio, "":
		return Ratio, nil
	case ModePartial:
		return PartialRatio, nil
	default:
		return nil, fmt.Errorf("unknown matcher mode %q", mode)
	}
}

// Ratio is the normalised edit-distance similarity:
// 100 * (1 - levenshtein(a,b) / max(len(a), len(b), 1)), rounded.
// Lengths are counted in runes.
func Ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb, 1)
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

// PartialRatio is the best Ratio of the shorter string against every window
// of equal length in the longer one, so a guess scores high against an answer
// that merely contains extra decoration.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	s := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := Ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Normalize folds case, strips diacritics and punctuation, and collapses
// whitespace. Hyphens and underscores separate words; other punctuation is
// dropped in place so "U.S.A." and "usa" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.In(r, unicode.Pd, unicode.Pc):
			pendingSpace = true
		}
	}
	return b.String()
}
