package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/peownership/internal/source"
)

const wiki = "https://en.wikipedia.org"

// fakeFetcher serves canned HTML per URL and records every request.
type fakeFetcher struct {
	pages   map[string]string
	fails   map[string]error
	calls   []string
	latency time.Duration
	spans   []fetchSpan
	onFetch func(rawURL string)
}

type fetchSpan struct {
	url        string
	start, end time.Time
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*goquery.Document, error) {
	f.calls = append(f.calls, rawURL)
	start := time.Now()
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	f.spans = append(f.spans, fetchSpan{url: rawURL, start: start, end: time.Now()})
	if f.onFetch != nil {
		f.onFetch(rawURL)
	}
	if err, ok := f.fails[rawURL]; ok {
		return nil, &source.FetchError{URL: rawURL, Cause: err}
	}
	html, ok := f.pages[rawURL]
	if !ok {
		return nil, &source.FetchError{URL: rawURL, Cause: errors.New("Not Found")}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func subcategoriesPage(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="mw-subcategories"><ul>`)
	for _, n := range names {
		slug := strings.ReplaceAll(n, " ", "_")
		fmt.Fprintf(&b, `<li><a href="/wiki/Category:%s_portfolio_companies">%s portfolio companies</a></li>`, slug, n)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func membersPage(next string, names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="mw-pages">`)
	if next != "" {
		fmt.Fprintf(&b, `(<a href="%s">next page</a>)`, next)
	}
	b.WriteString(`<ul>`)
	for _, n := range names {
		fmt.Fprintf(&b, `<li><a href="/wiki/%s">%s</a></li>`, strings.ReplaceAll(n, " ", "_"), n)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func ownerURL(name string) string {
	return wiki + "/wiki/Category:" + strings.ReplaceAll(name, " ", "_") + "_portfolio_companies"
}

func newTestTraverser(t *testing.T, f source.PageFetcher, opts ...Option) *Traverser {
	t.Helper()
	base, err := url.Parse(wiki)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(f, base, logger, append([]Option{WithDelay(0)}, opts...)...)
}

const rootURL = wiki + "/wiki/Category:Private_equity_portfolio_companies"

func TestRun_PopulatesAllOwners(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		rootURL:                  subcategoriesPage("Bain Capital", "KKR"),
		ownerURL("Bain Capital"): membersPage("", "Burger King Corp.", "Toys Inc"),
		ownerURL("KKR"):          membersPage("", "The Big Shop LLC", "X"),
	}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Owners, 2)
	assert.Equal(t, "Bain Capital", res.Owners[0].DisplayName)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{rootURL, ownerURL("Bain Capital"), ownerURL("KKR")}, f.calls)

	assert.Equal(t, 3, res.Records.Len())
	rec, ok := res.Records.Get("burgerking.com")
	require.True(t, ok)
	assert.Equal(t, "Bain Capital", rec.Owner)

	rec, ok = res.Records.Get("bigshop.com")
	require.True(t, ok)
	assert.Equal(t, "KKR", rec.Owner)

	require.Len(t, res.OwnerResults, 2)
	assert.Equal(t, 2, res.OwnerResults[1].Members)
	assert.Equal(t, 1, res.OwnerResults[1].Merged)
}

func TestRun_NoOwnersFound(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		rootURL: `<html><body><div id="mw-pages"><a href="/wiki/Petco">Petco</a></div></body></html>`,
	}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.ErrorIs(t, err, ErrNoOwnersFound)

	assert.Equal(t, 0, res.Records.Len())
	assert.Len(t, res.Errors, 1)
	assert.Equal(t, []string{rootURL}, f.calls)
}

func TestRun_EmptySubcategories(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{rootURL: subcategoriesPage()}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.ErrorIs(t, err, ErrNoOwnersFound)
	assert.Empty(t, res.Owners)
	assert.Len(t, f.calls, 1)
}

func TestRun_RootFetchFailure(t *testing.T) {
	f := &fakeFetcher{fails: map[string]error{rootURL: errors.New("connection refused")}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.ErrorIs(t, err, ErrNoOwnersFound)

	var fetchErr *source.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "connection refused")
	assert.Equal(t, 0, res.Records.Len())
}

func TestRun_OwnerFailureDoesNotStopTraversal(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{
			rootURL:            subcategoriesPage("Apollo", "Bain Capital", "KKR"),
			ownerURL("Apollo"): membersPage("", "Rackspace"),
			ownerURL("KKR"):    membersPage("", "Academy Sports"),
		},
		fails: map[string]error{ownerURL("Bain Capital"): errors.New("Internal Server Error")},
	}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Error scraping category "+ownerURL("Bain Capital")+": fetch "+ownerURL("Bain Capital")+": Internal Server Error", res.Errors[0])

	require.Len(t, res.OwnerResults, 3)
	assert.Error(t, res.OwnerResults[1].Err)
	assert.NoError(t, res.OwnerResults[2].Err)

	_, ok := res.Records.Get("academysports.com")
	assert.True(t, ok)
	assert.Equal(t, 2, res.Records.Len())
}

func TestRun_OwnerWithoutPagesSection(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		rootURL:            subcategoriesPage("Apollo", "KKR"),
		ownerURL("Apollo"): `<html><body><p>empty</p></body></html>`,
		ownerURL("KKR"):    membersPage("", "Academy Sports"),
	}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.OwnerResults[0].Err)
	assert.Equal(t, 0, res.OwnerResults[0].Members)
	assert.Equal(t, 1, res.Records.Len())
}

func TestRun_LaterOwnerWins(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		rootURL:           subcategoriesPage("FirmA", "FirmB"),
		ownerURL("FirmA"): membersPage("", "Acme"),
		ownerURL("FirmB"): membersPage("", "Acme Inc."),
	}}

	res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
	require.NoError(t, err)

	rec, ok := res.Records.Get("acme.com")
	require.True(t, ok)
	assert.Equal(t, "FirmB", rec.Owner)
	assert.Equal(t, 1, res.Records.Len())
}

func TestRun_FollowsPagination(t *testing.T) {
	page2 := "/w/index.php?title=Category:KKR_portfolio_companies&pagefrom=M"
	page3 := "/w/index.php?title=Category:KKR_portfolio_companies&pagefrom=T"
	f := &fakeFetcher{pages: map[string]string{
		rootURL:         subcategoriesPage("KKR"),
		ownerURL("KKR"): membersPage(page2, "Academy Sports"),
		wiki + page2:    membersPage(page3, "Mitchell Group"),
		wiki + page3:    membersPage("", "Toys R Us"),
	}}

	t.Run("disabled by default", func(t *testing.T) {
		f.calls = nil
		res, err := newTestTraverser(t, f).Run(context.Background(), rootURL)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Records.Len())
		assert.Equal(t, 1, res.OwnerResults[0].Pages)
	})

	t.Run("bounded by max pages", func(t *testing.T) {
		f.calls = nil
		res, err := newTestTraverser(t, f, WithPagination(2)).Run(context.Background(), rootURL)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Records.Len())
		assert.Equal(t, 2, res.OwnerResults[0].Pages)
		assert.NotContains(t, f.calls, wiki+page3)
	})

	t.Run("follows to the end", func(t *testing.T) {
		f.calls = nil
		res, err := newTestTraverser(t, f, WithPagination(10)).Run(context.Background(), rootURL)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Records.Len())
		_, ok := res.Records.Get("mitchell.com")
		assert.True(t, ok)
	})
}

func TestRun_CancelledBetweenOwners(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		pages: map[string]string{
			rootURL:            subcategoriesPage("Apollo", "Bain Capital", "KKR"),
			ownerURL("Apollo"): membersPage("", "Rackspace"),
			ownerURL("KKR"):    membersPage("", "Academy Sports"),
		},
		onFetch: func(rawURL string) {
			if rawURL == ownerURL("Apollo") {
				cancel()
			}
		},
	}

	res, err := newTestTraverser(t, f, WithDelay(time.Hour)).Run(ctx, rootURL)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Len(t, res.OwnerResults, 1)
	assert.Equal(t, []string{rootURL, ownerURL("Apollo")}, f.calls)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Interrupted with 2 of 3 owners not scraped")
}

func TestRun_CancelledDuringLastOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		pages: map[string]string{
			rootURL:         subcategoriesPage("KKR"),
			ownerURL("KKR"): membersPage("", "Academy Sports"),
		},
		onFetch: func(rawURL string) {
			if rawURL == ownerURL("KKR") {
				cancel()
			}
		},
	}

	_, err := newTestTraverser(t, f).Run(ctx, rootURL)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestRun_PausesAfterEachOwner(t *testing.T) {
	const delay = 80 * time.Millisecond
	f := &fakeFetcher{
		pages: map[string]string{
			rootURL:            subcategoriesPage("Apollo", "Bain Capital", "KKR"),
			ownerURL("Apollo"): membersPage("", "Rackspace"),
			ownerURL("KKR"):    membersPage("", "Academy Sports"),
		},
		fails:   map[string]error{ownerURL("Bain Capital"): errors.New("Internal Server Error")},
		latency: 2 * delay,
	}

	_, err := newTestTraverser(t, f, WithDelay(delay)).Run(context.Background(), rootURL)
	require.NoError(t, err)
	require.Len(t, f.spans, 4)

	// Owner fetches are slower than the delay, so the pause must be counted
	// from the end of the previous owner, not from its start.
	for i := 2; i < len(f.spans); i++ {
		gap := f.spans[i].start.Sub(f.spans[i-1].end)
		assert.GreaterOrEqual(t, gap, delay, "gap before %s", f.spans[i].url)
	}

	// No pause between discovery and the first owner.
	assert.Less(t, f.spans[1].start.Sub(f.spans[0].end), delay)
}
