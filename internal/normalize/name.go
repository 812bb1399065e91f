// Package normalize turns raw category link text into canonical company and
// owner names, and derives the speculative domain used as a record key.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// One trailing legal form, separated from the name by whitespace and an optional comma.
	legalSuffixRe  = regexp.MustCompile(`(?i),?\s+(inc|llc|corp|ltd|co|company|group|holdings?|plc)\.?\s*$`)
	leadingArticle = regexp.MustCompile(`(?i)^\s*(the|a)\s+`)
	ownerSuffixRe  = regexp.MustCompile(`(?i)\s+companies$`)
)

// MinNameLength is the shortest cleaned company name that is kept.
const MinNameLength = 2

// Clean strips a legal suffix, then a leading article, then collapses
// whitespace. It reports false when fewer than MinNameLength runes remain.
func Clean(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	name := legalSuffixRe.ReplaceAllString(raw, "")
	name = leadingArticle.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")

	if utf8.RuneCountInString(name) < MinNameLength {
		return "", false
	}
	return name, true
}

// CleanOwner trims a firm label and removes a trailing "companies". If
// nothing is left the trimmed label is returned unchanged.
func CleanOwner(raw string) string {
	label := strings.TrimSpace(raw)
	owner := strings.TrimSpace(ownerSuffixRe.ReplaceAllString(label, ""))
	if owner == "" {
		return label
	}
	return owner
}
