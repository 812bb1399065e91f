package export

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/shanehull/peownership/internal/model"
)

// WriteCSV writes a header row then one row per record, ordered by key.
func WriteCSV(w io.Writer, records map[string]model.CompanyRecord) error {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write(model.CSVHeader); err != nil {
		return err
	}
	for _, k := range keys {
		if err := cw.Write(records[k].CSVRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func SaveCSV(path string, records map[string]model.CompanyRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}
