package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the article pages and JSON routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			defer func() {
				if cerr := a.Close(cmd.Context()); cerr != nil {
					e.logger.Warn("close application failed", zap.Error(cerr))
				}
			}()
			return runApp(cmd, a)
		},
	}
}

func runApp(cmd *cobra.Command, a App) error {
	if err := a.Run(cmd.Context()); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	return nil
}
