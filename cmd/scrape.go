package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/app"
	"github.com/JakeFAU/news-scraper/internal/news"
)

// scraper is the part of the gateway the scrape command needs.
type scraper interface {
	Scrape(ctx context.Context) (news.ScrapeResult, error)
}

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape of the source listing and print the result",
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
			return runScrape(cmd.Context(), a.Gateway(), cmd.OutOrStdout())
		},
	}
}

func runScrape(ctx context.Context, s scraper, out io.Writer) error {
	result, err := s.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
