// Package sanitizer normalizes free-text input before validation and storage.
package sanitizer

import "strings"

// TrimAndNormalize trims leading/trailing whitespace and collapses internal
// whitespace runs to a single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName prepares a person's name for storage: whitespace is
// normalized, casing is preserved as entered.
func NormalizeName(s string) string {
	return TrimAndNormalize(s)
}

// NormalizeEmail lowercases an email address after trimming. Email matching
// is case-insensitive everywhere, so addresses are stored folded.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLabel prepares short labels (listing names, cities, categories)
// for storage and search.
func NormalizeLabel(s string) string {
	return TrimAndNormalize(s)
}
