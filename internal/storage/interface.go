package storage

import (
	"context"
	"errors"

	"github.com/shanehull/peownership/internal/model"
)

var ErrNoFilters = errors.New("no filters provided")

// Filter narrows a query. Owner and Name match case-insensitively as
// substrings; Key and RunID must match exactly. Empty fields are ignored.
type Filter struct {
	Key   string
	Owner string
	Name  string
	RunID string
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

type Repository interface {
	Init(ctx context.Context) error
	SaveRecords(ctx context.Context, runID string, records map[string]model.CompanyRecord) (inserted, updated int, err error)
	LoadRecords(ctx context.Context, f Filter) (map[string]model.CompanyRecord, error)
	DeleteRecords(ctx context.Context, f Filter) (int64, error)
	Close() error
}
