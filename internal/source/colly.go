package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// CollyFetcher fetches pages one at a time through a shared colly backend.
type CollyFetcher struct {
	logger    *slog.Logger
	collector *colly.Collector
}

func NewCollyFetcher(logger *slog.Logger, base *url.URL, userAgent string, timeout time.Duration) (*CollyFetcher, error) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.UserAgent(userAgent),
		// Category pages are fetched again on every run with the same fetcher
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1}); err != nil {
		return nil, fmt.Errorf("configure collector limits: %w", err)
	}

	return &CollyFetcher{logger: logger, collector: c}, nil
}

// Fetch visits rawURL synchronously and parses the response body.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: rawURL, Cause: err}
	}

	// Clones share the HTTP backend but not callbacks, so each fetch owns its own.
	c := f.collector.Clone()

	var body []byte
	var finalURL *url.URL
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		f.logger.Debug("Colly error", "url", r.Request.URL, "status", r.StatusCode, "err", err)
		scrapeErr = err
	})

	f.logger.Debug("Fetching page", "url", rawURL)
	if err := c.Visit(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Cause: err}
	}
	if scrapeErr != nil {
		return nil, &FetchError{URL: rawURL, Cause: scrapeErr}
	}
	if body == nil {
		return nil, &FetchError{URL: rawURL, Cause: fmt.Errorf("empty response")}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Cause: fmt.Errorf("parse html: %w", err)}
	}
	doc.Url = finalURL
	return doc, nil
}
