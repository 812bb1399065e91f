// Package store holds the in-memory company → owner mapping built by a crawl.
package store

import (
	"sort"
	"unicode/utf8"

	"github.com/shanehull/peownership/internal/model"
	"github.com/shanehull/peownership/internal/normalize"
)

// Outcome says what a Merge did to the store.
type Outcome int

const (
	Skipped  Outcome = iota // Name rejected, store unchanged
	Inserted                // New key
	Replaced                // Existing key overwritten
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	default:
		return "skipped"
	}
}

// MergeResult describes one Merge call.
type MergeResult struct {
	Key      string
	Record   model.CompanyRecord
	Previous model.CompanyRecord // Set only when Outcome is Replaced
	Outcome  Outcome
}

// Records maps a derived key to exactly one company record. It is not safe
// for concurrent use; a crawl owns its Records for the whole run.
type Records struct {
	byKey map[string]model.CompanyRecord
}

func NewRecords() *Records {
	return &Records{byKey: make(map[string]model.CompanyRecord)}
}

// Merge cleans a raw member name and stores it under its derived key.
// A later merge for the same key overwrites the earlier record.
func (r *Records) Merge(rawName, owner string) MergeResult {
	if utf8.RuneCountInString(rawName) < normalize.MinNameLength {
		return MergeResult{Outcome: Skipped}
	}

	cleaned, ok := normalize.Clean(rawName)
	if !ok {
		return MergeResult{Outcome: Skipped}
	}

	domain, _ := normalize.GuessDomain(cleaned)
	key := normalize.RecordKey(cleaned, domain)
	rec := model.CompanyRecord{
		Company:      cleaned,
		OriginalName: rawName,
		Owner:        normalize.CleanOwner(owner),
		Domain:       domain,
		Source:       model.SourceTag,
	}

	res := MergeResult{Key: key, Record: rec, Outcome: Inserted}
	if prev, exists := r.byKey[key]; exists {
		res.Previous = prev
		res.Outcome = Replaced
	}
	r.byKey[key] = rec
	return res
}

// Put stores a record as-is, e.g. when loading a persisted mapping.
func (r *Records) Put(key string, rec model.CompanyRecord) {
	r.byKey[key] = rec
}

func (r *Records) Get(key string) (model.CompanyRecord, bool) {
	rec, ok := r.byKey[key]
	return rec, ok
}

func (r *Records) Len() int {
	return len(r.byKey)
}

// Keys returns every key in sorted order.
func (r *Records) Keys() []string {
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns a copy of the mapping.
func (r *Records) All() map[string]model.CompanyRecord {
	out := make(map[string]model.CompanyRecord, len(r.byKey))
	for k, v := range r.byKey {
		out[k] = v
	}
	return out
}

// OwnerCounts returns the number of records held per owner.
func (r *Records) OwnerCounts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.byKey {
		counts[rec.Owner]++
	}
	return counts
}
