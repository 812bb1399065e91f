package model

import (
	"bytes"
	"encoding/json"
)

// SourceTag marks every record produced by the category crawl.
const SourceTag = "Wikipedia"

// CSVHeader is the column order of the flat export.
var CSVHeader = []string{"Domain", "Company", "Original_Name", "PE Firm", "Source"}

// OwnerCandidate is a sub-category of the root page, read as a PE firm.
type OwnerCandidate struct {
	DisplayName      string // Label with the "portfolio companies" suffix removed
	SourceURL        string // Absolute URL of the firm's own category page
	RawCategoryLabel string
}

// MemberPage is an article listed under a category page.
type MemberPage struct {
	Name string
	URL  string
}

type CompanyRecord struct {
	Company      string `json:"company"`
	OriginalName string `json:"original_name"`
	Owner        string `json:"owner"`
	Domain       string `json:"domain"` // Guessed, never verified. Empty when no guess was possible, null in JSON
	Source       string `json:"source"`
}

func (r CompanyRecord) HasDomain() bool {
	return r.Domain != ""
}

// CSVRow returns the record in CSVHeader order.
func (r CompanyRecord) CSVRow() []string {
	return []string{r.Domain, r.Company, r.OriginalName, r.Owner, r.Source}
}

// MarshalJSON writes an empty Domain as null. HTML characters in names are
// left unescaped.
func (r CompanyRecord) MarshalJSON() ([]byte, error) {
	out := struct {
		Company      string  `json:"company"`
		OriginalName string  `json:"original_name"`
		Owner        string  `json:"owner"`
		Domain       *string `json:"domain"`
		Source       string  `json:"source"`
	}{
		Company:      r.Company,
		OriginalName: r.OriginalName,
		Owner:        r.Owner,
		Source:       r.Source,
	}
	if r.Domain != "" {
		out.Domain = &r.Domain
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
