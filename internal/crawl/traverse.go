// Package crawl walks the two-level category hierarchy: the root page yields
// PE firms, and each firm's category page yields the companies it owns.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/peownership/internal/model"
	"github.com/shanehull/peownership/internal/source"
	"github.com/shanehull/peownership/internal/store"
)

var (
	// ErrNoOwnersFound aborts a run: without owners there is nothing to populate.
	ErrNoOwnersFound = errors.New("no owners found")
	// ErrInterrupted means the context ended before every owner was scraped.
	// The partial Result must not be exported.
	ErrInterrupted = errors.New("traversal interrupted")
)

// OwnerResult is the outcome of populating one owner.
type OwnerResult struct {
	Owner   model.OwnerCandidate
	Pages   int // Category pages fetched, more than one when following pagination
	Members int
	Merged  int
	Err     error
}

type Result struct {
	RunID        string
	Owners       []model.OwnerCandidate
	OwnerResults []OwnerResult
	Records      *store.Records
	Errors       []string
}

type Traverser struct {
	fetcher  source.PageFetcher
	base     *url.URL
	logger   *slog.Logger
	delay    time.Duration
	maxPages int
}

type Option func(*Traverser)

// WithDelay sets the pause taken after each owner, and after each listing
// page when following pagination, before the next request starts.
func WithDelay(d time.Duration) Option {
	return func(t *Traverser) {
		t.delay = d
	}
}

// WithPagination follows "next page" links, fetching at most maxPages
// listing pages per owner. Values below 1 disable it.
func WithPagination(maxPages int) Option {
	return func(t *Traverser) {
		if maxPages < 1 {
			maxPages = 1
		}
		t.maxPages = maxPages
	}
}

func New(fetcher source.PageFetcher, base *url.URL, logger *slog.Logger, opts ...Option) *Traverser {
	t := &Traverser{
		fetcher:  fetcher,
		base:     base,
		logger:   logger,
		delay:    time.Second,
		maxPages: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run discovers owners on rootURL and then populates a fresh record store
// from every owner's category page, in discovery order. Per-owner failures
// end up in Result.Errors. A failed discovery returns ErrNoOwnersFound and a
// cancelled context returns ErrInterrupted.
func (t *Traverser) Run(ctx context.Context, rootURL string) (*Result, error) {
	res := &Result{
		RunID:   uuid.NewString(),
		Records: store.NewRecords(),
	}
	logger := t.logger.With("run_id", res.RunID)

	logger.Info("Discovering owners", "url", rootURL)
	owners, err := t.discover(ctx, rootURL)
	if err != nil {
		msg := fmt.Sprintf("Error scraping category page %s: %v", rootURL, err)
		res.Errors = append(res.Errors, msg)
		logger.Error("Owner discovery failed", "url", rootURL, "err", err)
		return res, fmt.Errorf("%w: %w", ErrNoOwnersFound, err)
	}
	if len(owners) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("No owners found on %s", rootURL))
		logger.Error("No owners found, stopping", "url", rootURL)
		return res, ErrNoOwnersFound
	}
	res.Owners = owners
	logger.Info("Owners discovered", "count", len(owners))

	for i, owner := range owners {
		if i > 0 {
			if err := pause(ctx, t.delay); err != nil {
				return res, t.interrupted(res, len(owners)-i, err, logger)
			}
		}

		ownerLogger := logger.With("owner", owner.DisplayName)
		ownerLogger.Info("Scraping owner category", "n", i+1, "of", len(owners), "url", owner.SourceURL)

		or := t.populate(ctx, owner, res.Records, ownerLogger)
		if or.Err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Error scraping category %s: %v", owner.SourceURL, or.Err))
			ownerLogger.Error("Owner category failed", "url", owner.SourceURL, "err", or.Err)
		} else {
			ownerLogger.Info("Owner category done", "members", or.Members, "merged", or.Merged)
		}
		res.OwnerResults = append(res.OwnerResults, or)
	}
	if err := ctx.Err(); err != nil {
		return res, t.interrupted(res, 0, err, logger)
	}

	logger.Info("Traversal complete",
		"owners", len(res.Owners),
		"records", res.Records.Len(),
		"errors", len(res.Errors))
	return res, nil
}

func (t *Traverser) discover(ctx context.Context, rootURL string) ([]model.OwnerCandidate, error) {
	doc, err := t.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	owners, err := source.ExtractSubcategories(doc, t.base)
	if errors.Is(err, source.ErrSectionNotFound) {
		t.logger.Info("Could not find subcategories section", "url", rootURL)
		return nil, nil
	}
	return owners, err
}

func (t *Traverser) populate(ctx context.Context, owner model.OwnerCandidate, records *store.Records, logger *slog.Logger) OwnerResult {
	or := OwnerResult{Owner: owner}
	pageURL := owner.SourceURL

	for {
		doc, err := t.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			or.Err = err
			return or
		}
		or.Pages++

		members, err := source.ExtractMemberPages(doc, t.base)
		if errors.Is(err, source.ErrSectionNotFound) {
			logger.Info("No pages section found", "url", pageURL)
			return or
		}
		if err != nil {
			or.Err = err
			return or
		}

		for _, m := range members {
			or.Members++
			mr := records.Merge(m.Name, owner.DisplayName)
			switch mr.Outcome {
			case store.Skipped:
				logger.Debug("Skipped member", "name", m.Name)
				continue
			case store.Replaced:
				if mr.Previous.Owner != mr.Record.Owner {
					logger.Warn("Record replaced by another owner",
						"key", mr.Key, "previous_owner", mr.Previous.Owner, "previous_name", mr.Previous.OriginalName)
				}
			}
			or.Merged++
			logger.Debug("Matched", "company", mr.Record.Company, "owner", mr.Record.Owner, "key", mr.Key)
		}

		next, ok := source.NextPageURL(doc, t.base)
		if !ok || or.Pages >= t.maxPages {
			return or
		}
		if err := pause(ctx, t.delay); err != nil {
			or.Err = err
			return or
		}
		pageURL = next
	}
}

func (t *Traverser) interrupted(res *Result, remaining int, cause error, logger *slog.Logger) error {
	res.Errors = append(res.Errors, fmt.Sprintf("Interrupted with %d of %d owners not scraped: %v", remaining, len(res.Owners), cause))
	logger.Warn("Traversal interrupted", "remaining", remaining, "err", cause)
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

// pause waits d, counted from the end of the previous request.
func pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
