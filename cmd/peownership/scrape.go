package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/shanehull/peownership/internal/crawl"
	"github.com/shanehull/peownership/internal/export"
	"github.com/shanehull/peownership/internal/model"
	"github.com/shanehull/peownership/internal/report"
	"github.com/shanehull/peownership/internal/source"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the PE portfolio category tree",
	Long:  "Discovers PE firms from the root category's subcategories, collects every firm's portfolio companies, then writes the JSON database and the flat CSV and persists the records.",
	Args:  cobra.NoArgs,
	RunE:  runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.String("base-url", "", "Wiki base URL used to resolve relative links")
	f.String("root-url", "", "Root category page URL")
	f.String("json", "", "JSON database output path")
	f.String("csv", "", "CSV output path")
	f.String("db", "", "Database path (.duckdb, .sqlite); empty skips persistence")
	f.String("user-agent", "", "User-Agent header")
	f.Duration("delay", 0, "Minimum delay between requests (default from config: 1s)")
	f.Duration("timeout", 0, "Per-request timeout (default from config: 30s)")
	f.Bool("follow-pagination", false, "Follow \"next page\" links on firm categories")
	f.Int("max-pages", 0, "Listing pages per firm when following pagination (default from config: 10)")

	rootCmd.AddCommand(scrapeCmd)
}

func applyScrapeFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	overrideString(f, "base-url", &cfg.BaseURL)
	overrideString(f, "root-url", &cfg.RootCategoryURL)
	overrideString(f, "json", &cfg.JSONOutputPath)
	overrideString(f, "csv", &cfg.CSVOutputPath)
	overrideString(f, "db", &cfg.DBPath)
	overrideString(f, "user-agent", &cfg.UserAgent)
	if f.Changed("delay") {
		cfg.InterRequestDelay, _ = f.GetDuration("delay")
	}
	if f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}
	if f.Changed("follow-pagination") {
		cfg.FollowPagination, _ = f.GetBool("follow-pagination")
	}
	if f.Changed("max-pages") {
		cfg.MaxCategoryPages, _ = f.GetInt("max-pages")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func runScrape(cmd *cobra.Command, _ []string) error {
	if err := applyScrapeFlags(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %s: %w", cfg.BaseURL, err)
	}

	fetcher, err := source.NewCollyFetcher(logger.With("component", "fetcher"), base, cfg.UserAgent, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	traverser := crawl.New(fetcher, base, logger.With("component", "crawl"),
		crawl.WithDelay(cfg.InterRequestDelay),
		crawl.WithPagination(cfg.PagesPerOwner()),
	)

	// A failed or interrupted run leaves earlier outputs untouched.
	res, err := traverser.Run(ctx, cfg.RootCategoryURL)
	if err != nil {
		report.WriteSummary(out, res, cfg.ErrorPreview)
		if errors.Is(err, crawl.ErrNoOwnersFound) {
			return fmt.Errorf("could not find PE firms, stopping: %w", err)
		}
		return fmt.Errorf("scrape stopped before every firm was read, nothing written: %w", err)
	}

	records := res.Records.All()
	if err := export.SaveJSON(cfg.JSONOutputPath, records); err != nil {
		return fmt.Errorf("failed to save JSON database: %w", err)
	}
	logger.Info("Saved JSON database", "path", cfg.JSONOutputPath, "records", len(records))

	if err := export.SaveCSV(cfg.CSVOutputPath, records); err != nil {
		return fmt.Errorf("failed to save CSV: %w", err)
	}
	logger.Info("Saved CSV", "path", cfg.CSVOutputPath, "records", len(records))

	if cfg.DBPath != "" {
		if err := persist(ctx, cfg.DBPath, res.RunID, records); err != nil {
			return err
		}
	}

	report.WriteSummary(out, res, cfg.ErrorPreview)
	_, _ = fmt.Fprintf(out, "Saved %d companies to %s and %s\n", len(records), cfg.JSONOutputPath, cfg.CSVOutputPath)
	return nil
}

func persist(ctx context.Context, path, runID string, records map[string]model.CompanyRecord) error {
	repo, err := openRepo(ctx, path)
	if err != nil {
		return err
	}
	defer repo.Close()

	inserted, updated, err := repo.SaveRecords(ctx, runID, records)
	if err != nil {
		return fmt.Errorf("failed to persist records: %w", err)
	}
	logger.Info("Persisted records", "path", path, "run_id", runID, "new", inserted, "updated", updated)
	return nil
}
