// Package normalize canonicalizes free text and catalog keywords so that
// matching operates on a single comparable form.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rewrite is one literal substring replacement applied during normalization.
// Rewrites run in order; later rewrites may re-match output of earlier ones.
type Rewrite struct {
	Old string
	New string
}

// DefaultRewrites folds known equivalent spellings of casing and bit size
// tokens from the drilling vocabulary into one canonical form.
var DefaultRewrites = []Rewrite{
	{Old: "9 1/2", New: "9.5"},
	{Old: "9 1/2'", New: "9.5"},
	{Old: "9.5'", New: "9.5"},
	{Old: "20'", New: "20in"},
}

// stripMarks decomposes to NFD and removes combining marks, so any accented
// Latin letter reduces to its base letter ("cáscara" -> "cascara").
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer canonicalizes text: lowercase, diacritics stripped, domain
// rewrites applied, then filtered down to [a-z0-9., ] with collapsed spaces.
// The zero value is not usable; use New.
type Normalizer struct {
	rewrites []Rewrite
}

// New returns a Normalizer with the given rewrite rules. Pass
// DefaultRewrites for the standard drilling vocabulary.
func New(rewrites []Rewrite) *Normalizer {
	return &Normalizer{rewrites: rewrites}
}

// Normalize canonicalizes s. It is pure, total over any input, and
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(s string) string {
	s = strings.ToLower(s)

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	for _, r := range n.rewrites {
		s = strings.ReplaceAll(s, r.Old, r.New)
	}

	// Keep letters, digits, periods, commas and plain spaces. Everything
	// else is removed, including tabs and newlines, which joins words that
	// were split across lines in the source cell.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == ',', r == ' ':
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Keywords derives the normalized keyword set from a comma-separated phrase
// list. Empty entries and duplicates are dropped; order follows first
// occurrence in the source string.
func (n *Normalizer) Keywords(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		kw := n.Normalize(strings.TrimSpace(part))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
