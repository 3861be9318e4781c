package catalog

import (
	"strings"
)

// normalizeQuery lowercases and collapses whitespace for matching.
func normalizeQuery(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// bigramSimilarity returns the Sørensen–Dice coefficient over character
// bigrams, scaled to 0..100. Both inputs must already be normalized.
func bigramSimilarity(a, b string) int {
	if a == b {
		return 100
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	counts := make(map[string]int)
	for i := 0; i+2 <= len(a); i++ {
		counts[a[i:i+2]]++
	}
	total := len(a) - 1 + len(b) - 1
	matches := 0
	for i := 0; i+2 <= len(b); i++ {
		bg := b[i : i+2]
		if counts[bg] > 0 {
			counts[bg]--
			matches++
		}
	}
	return 200 * matches / total
}
