package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/config"
	"github.com/JakeFAU/news-scraper/internal/logging"
)

// envKeyType is the key for storing the loaded environment in the context.
type envKeyType string

const envKey envKeyType = "env"

// env is what PersistentPreRunE hands to subcommands.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

// App is the surface commands use from a built application.
type App interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "newsscraper",
		Short: "Scrape news headlines and curate them with notes.",
		Long: `newsscraper fetches the Yahoo News listing, stores every headline it
finds, and serves pages for saving articles and attaching notes to them.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Config and logger are loaded once here, before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, &env{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := cmd.Context().Value(envKey).(*env); ok && e != nil {
				_ = e.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

func resolveEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("configuration not loaded")
	}
	return e, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "newsscraper: %v\n", err)
		os.Exit(1)
	}
}
