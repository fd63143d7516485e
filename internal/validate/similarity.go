// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import "strings"

// stopWords are filtered out before token comparison; they carry no
// discriminating power between titles.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"for": true, "and": true, "or": true, "to": true, "with": true,
	"by": true, "from": true, "at": true, "is": true, "its": true,
}

// TitleSimilarity returns the Jaccard ratio of the lowercase,
// punctuation-stripped, stop-word-filtered token sets of a and b. The result
// is symmetric and bounded in [0,1]: identical titles score 1.0, disjoint
// token sets score 0.0.
func TitleSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for tok := range ta {
		if tb[tok] {
			common++
		}
	}
	union := len(ta) + len(tb) - common
	return float64(common) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(s)) {
		tok := strings.Map(keepAlnum, field)
		if tok == "" || stopWords[tok] {
			continue
		}
		set[tok] = true
	}
	return set
}

func keepAlnum(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return r
	}
	return -1
}
