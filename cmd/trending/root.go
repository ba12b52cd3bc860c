// cmd/trending/root.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github-trending/internal/config"
	"github-trending/internal/github"
	"github-trending/internal/store"
	"github-trending/internal/syncer"
	"github-trending/internal/trending"
)

func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Fetch GitHub trending repositories",
		Long: `Fetches the GitHub trending repositories for a time range and saves them
to the trending_repos table, one row per repository url.

Example:
  trending --spoken_language_code en --language python --since weekly`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		// Options are validated before anything is fetched so bad input prints usage.
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.LoadConfig(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			setLogLevel(cfg.LogLevel, logLevel)
			logger.Debug("Configuration loaded successfully", "source", cfg.Source, "since", cfg.Since)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runSync(ctx, cmd, cfg, logger)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runSync(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgCyan).Fprintf(out, "Fetching trending repositories for the time range: %s\n", cfg.Since)

	if _, err := syncer.NewSyncer(newFetcher(cfg, logger), st, logger).Sync(ctx, cfg.Query()); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(out, "Trending repositories have been saved to the database")

	if n, err := st.Count(ctx); err == nil {
		logger.Debug("Stored trending repositories", "rows", n)
	}
	return nil
}

func newFetcher(cfg *config.Config, logger *slog.Logger) syncer.Fetcher {
	if cfg.Source == config.SourceSearch {
		return github.NewClient(cfg.GithubToken, cfg.HTTPTimeout, logger)
	}
	return trending.NewScraper(cfg.TrendingURL, cfg.HTTPTimeout, logger)
}
