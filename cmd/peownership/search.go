package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/peownership/internal/export"
	"github.com/shanehull/peownership/internal/report"
	"github.com/shanehull/peownership/internal/storage"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored records",
	Long:  "Filters records in the database and prints them as a table, or writes them to a CSV file with --out.",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

var (
	searchFilter storage.Filter
	searchOut    string
)

func init() {
	searchCmd.Flags().String("db", "", "Database path (default from config)")
	searchCmd.Flags().StringVarP(&searchOut, "out", "o", "", "Write results to this CSV file instead of printing them")
	addFilterFlags(searchCmd, &searchFilter)

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	overrideString(cmd.Flags(), "db", &cfg.DBPath)

	ctx := cmd.Context()
	repo, err := openRepo(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.LoadRecords(ctx, searchFilter)
	if err != nil {
		logger.Error("Search failed", "err", err)
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOut == "" {
		report.WriteRecords(cmd.OutOrStdout(), records)
		return nil
	}

	if err := export.SaveCSV(searchOut, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", searchOut, err)
	}
	logger.Info("Search complete", "output", searchOut, "records", len(records))
	return nil
}
