package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/peownership/internal/export"
	"github.com/shanehull/peownership/internal/lookup"
	"github.com/shanehull/peownership/internal/model"
	"github.com/shanehull/peownership/internal/report"
	"github.com/shanehull/peownership/internal/storage"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <domain|url>",
	Short: "Check whether a site is owned by a PE firm",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var (
	lookupFromDB    bool
	lookupThreshold float64
)

func init() {
	lookupCmd.Flags().String("json", "", "JSON database to check against (default from config)")
	lookupCmd.Flags().String("db", "", "Database path, used with --from-db (default from config)")
	lookupCmd.Flags().BoolVar(&lookupFromDB, "from-db", false, "Check against the database instead of the JSON file")
	lookupCmd.Flags().Float64Var(&lookupThreshold, "threshold", 0, "Fuzzy match threshold in (0, 1] (default from config: 0.92)")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	overrideString(f, "json", &cfg.JSONOutputPath)
	overrideString(f, "db", &cfg.DBPath)
	if f.Changed("threshold") {
		cfg.FuzzyThreshold = lookupThreshold
	}

	var (
		records map[string]model.CompanyRecord
		err     error
	)
	if lookupFromDB {
		ctx := cmd.Context()
		repo, openErr := openRepo(ctx, cfg.DBPath)
		if openErr != nil {
			return openErr
		}
		defer repo.Close()
		records, err = repo.LoadRecords(ctx, storage.Filter{})
	} else {
		records, err = export.LoadJSON(cfg.JSONOutputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	checker := lookup.NewChecker(records, cfg.FuzzyThreshold)
	m, ok := checker.Check(args[0])
	if !ok {
		logger.Debug("No match", "input", args[0], "records", len(records))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No PE ownership found for %s\n", args[0])
		return nil
	}

	logger.Debug("Match", "input", args[0], "key", m.Key, "method", m.Method, "score", m.Score)
	report.WriteMatch(cmd.OutOrStdout(), args[0], m)
	return nil
}
