// Package similarity scores how alike two normalized strings are on a 0-100
// scale.
package similarity

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Score returns the confidence that a and b refer to the same thing, in
// [0,100]. It is the maximum of four complementary measures: whole-string
// ratio, best-aligning partial ratio, token-sort ratio and token-set ratio.
// Taking the maximum keeps the scorer permissive: a match along any one axis
// counts, which is what noisy field-log text needs. Inputs are expected to be
// already normalized.
func Score(a, b string) int {
	if a == "" || b == "" {
		if a == b {
			return 100
		}
		return 0
	}

	best := fuzzy.Ratio(a, b)
	if s := fuzzy.PartialRatio(a, b); s > best {
		best = s
	}
	if s := fuzzy.TokenSortRatio(a, b); s > best {
		best = s
	}
	if s := fuzzy.TokenSetRatio(a, b); s > best {
		best = s
	}

	if best < 0 {
		return 0
	}
	if best > 100 {
		return 100
	}
	return best
}
