package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shanehull/peownership/internal/model"
)

const createOwnershipTable = `
CREATE TABLE IF NOT EXISTS ownership (
	record_key TEXT PRIMARY KEY,
	company TEXT NOT NULL,
	original_name TEXT,
	owner TEXT,
	domain TEXT,
	source TEXT,
	run_id TEXT,
	updated_at TIMESTAMP
);`

// Last write wins, same as the in-memory store.
const upsertOwnership = `
INSERT INTO ownership (record_key, company, original_name, owner, domain, source, run_id, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (record_key) DO UPDATE SET
	company = EXCLUDED.company,
	original_name = EXCLUDED.original_name,
	owner = EXCLUDED.owner,
	domain = EXCLUDED.domain,
	source = EXCLUDED.source,
	run_id = EXCLUDED.run_id,
	updated_at = EXCLUDED.updated_at;`

// sqlRepo carries the SQL shared by the DuckDB and SQLite backends.
type sqlRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (r *sqlRepo) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createOwnershipTable)
	return err
}

func (r *sqlRepo) SaveRecords(ctx context.Context, runID string, records map[string]model.CompanyRecord) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var inserted, updated int
	for key, rec := range records {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM ownership WHERE record_key = ?)", key).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("check %s: %w", key, err)
		}

		_, err := tx.ExecContext(ctx, upsertOwnership,
			key, rec.Company, rec.OriginalName, rec.Owner, nullable(rec.Domain), rec.Source, runID, now)
		if err != nil {
			return 0, 0, fmt.Errorf("save %s: %w", key, err)
		}
		if exists {
			updated++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	r.logger.Debug("Saved records", "inserted", inserted, "updated", updated, "run_id", runID)
	return inserted, updated, nil
}

func (r *sqlRepo) LoadRecords(ctx context.Context, f Filter) (map[string]model.CompanyRecord, error) {
	query := "SELECT record_key, company, original_name, owner, domain, source FROM ownership"
	where, args := f.where()
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY record_key"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]model.CompanyRecord)
	for rows.Next() {
		var key string
		var rec model.CompanyRecord
		var original, owner, domain, src sql.NullString
		if err := rows.Scan(&key, &rec.Company, &original, &owner, &domain, &src); err != nil {
			return nil, err
		}
		rec.OriginalName = original.String
		rec.Owner = owner.String
		rec.Domain = domain.String
		rec.Source = src.String
		records[key] = rec
	}
	return records, rows.Err()
}

func (r *sqlRepo) DeleteRecords(ctx context.Context, f Filter) (int64, error) {
	where, args := f.where()
	if where == "" {
		return 0, ErrNoFilters
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM ownership WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqlRepo) Close() error {
	return r.db.Close()
}

func (f Filter) where() (string, []any) {
	var conditions []string
	var args []any

	if f.Key != "" {
		conditions = append(conditions, "record_key = ?")
		args = append(args, strings.ToLower(f.Key))
	}
	if f.Owner != "" {
		conditions = append(conditions, `lower(owner) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Owner))
	}
	if f.Name != "" {
		conditions = append(conditions, `(lower(company) LIKE ? ESCAPE '\' OR lower(original_name) LIKE ? ESCAPE '\')`)
		args = append(args, containsPattern(f.Name), containsPattern(f.Name))
	}
	if f.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, f.RunID)
	}
	return strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches s literally, case-insensitively, anywhere in a value.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
