package normalize

import (
	"strings"
	"unicode/utf8"
)

// Stems too generic to become a domain on their own.
var genericStems = map[string]bool{
	"inc":  true,
	"llc":  true,
	"corp": true,
	"ltd":  true,
	"plc":  true,
}

// GuessDomain builds "<name>.com" from the ASCII letters and digits of a
// cleaned name. The result is a heuristic and is never checked against DNS.
func GuessDomain(cleaned string) (string, bool) {
	stem := domainStem(cleaned)
	if utf8.RuneCountInString(stem) < 3 || genericStems[stem] {
		return "", false
	}
	return stem + ".com", true
}

// RecordKey is the deduplication key: the guessed domain, or the cleaned
// name lower-cased with spaces and periods removed.
func RecordKey(cleaned, domain string) string {
	if domain != "" {
		return domain
	}
	key := strings.ToLower(cleaned)
	key = strings.ReplaceAll(key, " ", "")
	return strings.ReplaceAll(key, ".", "")
}

func domainStem(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
