// Package lookup answers "who owns this site?" against an exported mapping.
package lookup

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/shanehull/peownership/internal/model"
)

// DefaultFuzzyThreshold is the lowest Jaro-Winkler similarity accepted by
// the last-resort fuzzy match.
const DefaultFuzzyThreshold = 0.92

type Method string

const (
	MethodKey     Method = "key"
	MethodDomain  Method = "domain"
	MethodContain Method = "contains"
	MethodFuzzy   Method = "fuzzy"
)

type Match struct {
	Key    string
	Record model.CompanyRecord
	Method Method
	Score  float64
}

type Checker struct {
	records   map[string]model.CompanyRecord
	keys      []string
	threshold float64
}

// NewChecker indexes records. A threshold outside (0, 1] disables fuzzy matching.
func NewChecker(records map[string]model.CompanyRecord, threshold float64) *Checker {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Checker{records: records, keys: keys, threshold: threshold}
}

// Check tries, in order: exact key, exact record domain, key containment in
// either direction, then fuzzy similarity of the domain stems.
func (c *Checker) Check(input string) (Match, bool) {
	domain := NormalizeDomain(input)
	if domain == "" {
		return Match{}, false
	}

	if rec, ok := c.records[domain]; ok {
		return Match{Key: domain, Record: rec, Method: MethodKey, Score: 1}, true
	}

	for _, k := range c.keys {
		rec := c.records[k]
		if rec.HasDomain() && NormalizeDomain(rec.Domain) == domain {
			return Match{Key: k, Record: rec, Method: MethodDomain, Score: 1}, true
		}
	}

	for _, k := range c.keys {
		// Very short keys would match almost any domain
		if utf8.RuneCountInString(k) < 3 {
			continue
		}
		if strings.Contains(k, domain) || strings.Contains(domain, strings.TrimSuffix(k, ".com")) {
			return Match{Key: k, Record: c.records[k], Method: MethodContain}, true
		}
	}

	if c.threshold <= 0 || c.threshold > 1 {
		return Match{}, false
	}
	stem := stemOf(domain)
	var best Match
	for _, k := range c.keys {
		score := matchr.JaroWinkler(stem, stemOf(k), false)
		if score > best.Score {
			best = Match{Key: k, Record: c.records[k], Method: MethodFuzzy, Score: score}
		}
	}
	if best.Score >= c.threshold {
		return best, true
	}
	return Match{}, false
}

// NormalizeDomain reduces a URL or host to a lower-case host without a
// leading "www.".
func NormalizeDomain(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func stemOf(domain string) string {
	if i := strings.IndexByte(domain, '.'); i > 0 {
		return domain[:i]
	}
	return domain
}
