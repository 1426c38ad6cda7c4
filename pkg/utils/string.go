// Package utils provides small string helpers shared by the extractors.
package utils

import "strings"

// nbsp artifacts appear both as the raw entity and as the decoded rune in the
// legacy exports.
var entityReplacer = strings.NewReplacer("&#160;", " ", "&nbsp;", " ", "\u00a0", " ")

// StripEntities replaces non-breaking-space artifacts with plain spaces.
func StripEntities(s string) string {
	return entityReplacer.Replace(s)
}

// NormalizeWhitespace collapses runs of whitespace (including newlines) into
// single spaces and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanCell prepares raw HTML/CSV cell text for comparison: entities stripped,
// whitespace collapsed.
func CleanCell(s string) string {
	return NormalizeWhitespace(StripEntities(s))
}
