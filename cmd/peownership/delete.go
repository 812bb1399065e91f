package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shanehull/peownership/internal/storage"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored records matching the filters",
	Args:  cobra.NoArgs,
	RunE:  runDelete,
}

var (
	deleteFilter storage.Filter
	deleteYes    bool
)

func init() {
	deleteCmd.Flags().String("db", "", "Database path (default from config)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	addFilterFlags(deleteCmd, &deleteFilter)

	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	if deleteFilter.IsEmpty() {
		return fmt.Errorf("at least one filter is required (--key, --owner, --name or --run-id)")
	}
	overrideString(cmd.Flags(), "db", &cfg.DBPath)

	out := cmd.OutOrStdout()
	if !deleteYes {
		_, _ = fmt.Fprintln(out, "\nDelete with filters:")
		for _, kv := range [][2]string{
			{"key", deleteFilter.Key},
			{"owner", deleteFilter.Owner},
			{"name", deleteFilter.Name},
			{"run_id", deleteFilter.RunID},
		} {
			if kv[1] != "" {
				_, _ = fmt.Fprintf(out, "  %s: %s\n", kv[0], kv[1])
			}
		}
		_, _ = fmt.Fprint(out, "\nAre you sure? (yes/no): ")

		reader := bufio.NewReader(cmd.InOrStdin())
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	ctx := cmd.Context()
	repo, err := openRepo(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	rowsDeleted, err := repo.DeleteRecords(ctx, deleteFilter)
	if err != nil {
		logger.Error("Delete failed", "filter", deleteFilter, "err", err)
		return fmt.Errorf("delete failed: %w", err)
	}

	if rowsDeleted == 0 {
		logger.Warn("No records matched the filters", "filter", deleteFilter)
	} else {
		logger.Info("Deleted successfully", "filter", deleteFilter, "rows_deleted", rowsDeleted)
	}
	_, _ = fmt.Fprintf(out, "Deleted %d records\n", rowsDeleted)
	return nil
}
