// Package export writes the company → owner mapping to the files consumed
// downstream: a JSON object keyed by record key and a flat CSV table.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shanehull/peownership/internal/model"
)

// WriteJSON writes records as one pretty-printed object keyed by record key.
// Keys come out sorted; non-ASCII and HTML characters are written as-is.
func WriteJSON(w io.Writer, records map[string]model.CompanyRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if records == nil {
		records = map[string]model.CompanyRecord{}
	}
	return enc.Encode(records)
}

func SaveJSON(path string, records map[string]model.CompanyRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, records)
	})
}

// LoadJSON reads a file written by SaveJSON.
func LoadJSON(path string) (map[string]model.CompanyRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records map[string]model.CompanyRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
