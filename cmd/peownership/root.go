package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shanehull/peownership/internal/config"
	"github.com/shanehull/peownership/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:               "peownership",
	Short:             "Map companies to the private equity firms that own them",
	Long:              "Scrapes Wikipedia's \"Private equity portfolio companies\" category tree into a domain-keyed database of company to PE firm mappings, and looks sites up against it.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: peownership/config.yaml in the XDG config dirs)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logs")
}

// setup builds the logger and resolves defaults, config file and environment.
// Flags are applied by each command on top of the result.
func setup(cmd *cobra.Command, _ []string) error {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := c.ApplyEnv(); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if path != "" {
		logger.Debug("Loaded config file", "path", path)
	}
	cfg = c
	return nil
}

// overrideString copies a flag value into dst when the flag was set explicitly.
func overrideString(flags *pflag.FlagSet, name string, dst *string) {
	if flags.Changed(name) {
		v, _ := flags.GetString(name)
		*dst = v
	}
}

func addFilterFlags(cmd *cobra.Command, f *storage.Filter) {
	cmd.Flags().StringVar(&f.Key, "key", "", "Exact record key (domain or fallback key)")
	cmd.Flags().StringVar(&f.Owner, "owner", "", "PE firm name (case-insensitive contains)")
	cmd.Flags().StringVar(&f.Name, "name", "", "Company name (case-insensitive contains)")
	cmd.Flags().StringVar(&f.RunID, "run-id", "", "Scrape run ID")
}

// openRepo opens and initialises the database at path.
func openRepo(ctx context.Context, path string) (storage.Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("no database path: set --db, db_path or PEOWNERSHIP_DB")
	}
	repo, err := storage.Open(path, logger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := repo.Init(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialise database %s: %w", path, err)
	}
	return repo, nil
}
