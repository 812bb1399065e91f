package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/peownership/internal/export"
	"github.com/shanehull/peownership/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to the JSON database and CSV",
	Long:  "Reads records from the database, optionally filtered, and rewrites the JSON database and the flat CSV without scraping.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportFilter storage.Filter
	exportNative bool
)

func init() {
	exportCmd.Flags().String("db", "", "Database path (default from config)")
	exportCmd.Flags().String("json", "", "JSON database output path (default from config)")
	exportCmd.Flags().String("csv", "", "CSV output path (default from config)")
	exportCmd.Flags().BoolVar(&exportNative, "native", false, "Let DuckDB write the CSV itself (DuckDB databases only)")
	addFilterFlags(exportCmd, &exportFilter)

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	overrideString(f, "db", &cfg.DBPath)
	overrideString(f, "json", &cfg.JSONOutputPath)
	overrideString(f, "csv", &cfg.CSVOutputPath)

	ctx := cmd.Context()
	repo, err := openRepo(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.LoadRecords(ctx, exportFilter)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if err := export.SaveJSON(cfg.JSONOutputPath, records); err != nil {
		return fmt.Errorf("failed to save JSON database: %w", err)
	}

	if duck, ok := repo.(*storage.DuckDBRepo); ok && exportNative {
		err = duck.ExportCSV(ctx, cfg.CSVOutputPath, exportFilter)
	} else {
		if exportNative {
			logger.Warn("Native export needs a DuckDB database, writing CSV directly", "db", cfg.DBPath)
		}
		err = export.SaveCSV(cfg.CSVOutputPath, records)
	}
	if err != nil {
		logger.Error("Export failed", "err", err)
		return fmt.Errorf("failed to save CSV: %w", err)
	}

	logger.Info("Export successful", "json", cfg.JSONOutputPath, "csv", cfg.CSVOutputPath, "records", len(records))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d companies to %s and %s\n", len(records), cfg.JSONOutputPath, cfg.CSVOutputPath)
	return nil
}
