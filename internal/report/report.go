// Package report renders run summaries and record listings as tables.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shanehull/peownership/internal/crawl"
	"github.com/shanehull/peownership/internal/lookup"
	"github.com/shanehull/peownership/internal/model"
)

// DefaultErrorPreview is how many errors the summary lists before eliding.
const DefaultErrorPreview = 5

// OwnerCount is one row of the portfolio size ranking.
type OwnerCount struct {
	Owner string
	Count int
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// RankOwners orders owners by record count, largest first, ties by name.
func RankOwners(counts map[string]int) []OwnerCount {
	ranked := make([]OwnerCount, 0, len(counts))
	for owner, n := range counts {
		ranked = append(ranked, OwnerCount{Owner: owner, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Owner < ranked[j].Owner
	})
	return ranked
}

// WriteSummary prints the counts, the discovered owners, the owner ranking
// and up to preview errors of a traversal.
func WriteSummary(w io.Writer, res *crawl.Result, preview int) {
	if preview < 0 {
		preview = 0
	}

	var counts map[string]int
	records := 0
	if res.Records != nil {
		counts = res.Records.OwnerCounts()
		records = res.Records.Len()
	}

	t := newTable(w)
	t.SetTitle("Scraping summary")
	t.AppendRows([]table.Row{
		{"PE firms found", len(res.Owners)},
		{"Companies matched", records},
		{"Errors encountered", len(res.Errors)},
	})
	t.Render()

	if len(res.Owners) > 0 {
		t = newTable(w)
		t.SetTitle("PE firms found")
		t.AppendHeader(table.Row{"#", "PE firm", "Category"})
		for i, o := range res.Owners {
			t.AppendRow(table.Row{i + 1, o.DisplayName, o.SourceURL})
		}
		t.Render()
	}

	if len(counts) > 0 {
		t = newTable(w)
		t.SetTitle("PE firms by portfolio size")
		t.AppendHeader(table.Row{"PE firm", "Companies"})
		for _, oc := range RankOwners(counts) {
			t.AppendRow(table.Row{oc.Owner, oc.Count})
		}
		t.Render()
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for i, e := range res.Errors {
			if i == preview {
				break
			}
			fmt.Fprintf(w, "  - %s\n", e)
		}
		if len(res.Errors) > preview {
			fmt.Fprintf(w, "  ... and %d more errors\n", len(res.Errors)-preview)
		}
	}
}

// WriteMatch prints a lookup hit.
func WriteMatch(w io.Writer, input string, m lookup.Match) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Ownership of %s", input))
	t.AppendRows([]table.Row{
		{"Company", m.Record.Company},
		{"Owner", m.Record.Owner},
		{"Key", m.Key},
		{"Matched by", string(m.Method)},
	})
	if m.Method == lookup.MethodFuzzy {
		t.AppendRow(table.Row{"Similarity", fmt.Sprintf("%.3f", m.Score)})
	}
	t.Render()
}

// WriteRecords lists records in key order.
func WriteRecords(w io.Writer, records map[string]model.CompanyRecord) {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Company", "Original name", "Owner", "Domain"})
	for _, k := range keys {
		r := records[k]
		t.AppendRow(table.Row{k, r.Company, r.OriginalName, r.Owner, r.Domain})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(records)})
	t.Render()
}
