// Package similarity provides a lexical near-duplicate scorer for fact
// values. It is a standalone, human-triggered tool: merge decisions use
// exact case-insensitive equality only and never consult these scores.
package similarity

import (
	"sort"

	"github.com/rkeeling/kith/internal/normalize"
)

// Pair is a scored value pair. Scores range from 0 (disjoint) to 1
// (identical after folding).
type Pair struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// Score computes trigram Jaccard similarity between two values after
// case/whitespace folding. Values shorter than a trigram compare by folded
// equality.
func Score(a, b string) float64 {
	fa, fb := normalize.Fold(a), normalize.Fold(b)
	if fa == fb {
		return 1
	}

	ta, tb := trigrams(fa), trigrams(fb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for gram := range ta {
		if tb[gram] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// FindNearDuplicates scores every value pair and returns those at or above
// the threshold, highest score first. Exact duplicates (score 1) are
// included; the caller decides what to do with them.
func FindNearDuplicates(values []string, threshold float64) []Pair {
	var pairs []Pair
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			score := Score(values[i], values[j])
			if score >= threshold {
				pairs = append(pairs, Pair{A: values[i], B: values[j], Score: score})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}

// trigrams returns the set of 3-grams of s, padded so short words still
// produce boundary grams.
func trigrams(s string) map[string]bool {
	if s == "" {
		return nil
	}

	padded := "  " + s + " "
	grams := make(map[string]bool)
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = true
	}
	return grams
}
