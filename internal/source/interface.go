package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves and parses one page. A non-2xx response is an error.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// FetchError reports a transport, status or parse failure for one URL.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
