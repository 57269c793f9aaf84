// Package normalize provides the case/whitespace-insensitive string
// comparison used throughout merge decisions. The contract is deliberately
// exact folding: two values are duplicates only when they fold to the same
// string. Fuzzy near-duplicate detection lives in the similarity package and
// never feeds merge decisions.
package normalize

import "strings"

// Fold lowercases and trims the value for comparison.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Equal reports whether two values are case-insensitive equal after trimming.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// FirstToken returns the first whitespace-separated token of the trimmed
// value, or "" when the value is blank.
func FirstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
