package storage

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Open picks the backend from the file extension: .sqlite, .sqlite3 and .db
// open SQLite, anything else opens DuckDB.
func Open(path string, logger *slog.Logger) (Repository, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		logger.Debug("Opening SQLite store", "path", path)
		repo, err := NewSQLiteRepo(path, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		logger.Debug("Opening DuckDB store", "path", path)
		repo, err := NewDuckDBRepo(path, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}
