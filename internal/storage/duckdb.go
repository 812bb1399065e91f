package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

type DuckDBRepo struct {
	sqlRepo
}

func NewDuckDBRepo(path string, logger *slog.Logger) (*DuckDBRepo, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDBRepo{sqlRepo{db: db, logger: logger}}, nil
}

// ExportCSV lets DuckDB write the filtered table straight to a CSV file,
// using the same columns as the flat export.
func (r *DuckDBRepo) ExportCSV(ctx context.Context, path string, f Filter) error {
	var filters []string
	if f.Key != "" {
		filters = append(filters, fmt.Sprintf("record_key = %s", quote(strings.ToLower(f.Key))))
	}
	if f.Owner != "" {
		filters = append(filters, fmt.Sprintf("contains(lower(owner), %s)", quote(strings.ToLower(f.Owner))))
	}
	if f.Name != "" {
		name := quote(strings.ToLower(f.Name))
		filters = append(filters, fmt.Sprintf("(contains(lower(company), %s) OR contains(lower(original_name), %s))", name, name))
	}
	if f.RunID != "" {
		filters = append(filters, fmt.Sprintf("run_id = %s", quote(f.RunID)))
	}

	where := ""
	if len(filters) > 0 {
		where = "WHERE " + strings.Join(filters, " AND ")
	}

	query := fmt.Sprintf(`
		COPY (
			SELECT coalesce(domain, '') AS "Domain", company AS "Company", original_name AS "Original_Name", owner AS "PE Firm", source AS "Source"
			FROM ownership
			%s
			ORDER BY record_key
		) TO %s (HEADER, DELIMITER ',');`, where, quote(path))

	if err := ensureDir(path); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
