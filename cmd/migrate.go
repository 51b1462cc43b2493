package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/news-scraper/internal/config"
	pgstore "github.com/JakeFAU/news-scraper/internal/storage/postgres"
)

// migrator applies the schema.
type migrator interface {
	Migrate(ctx context.Context) error
	Close()
}

// openMigrator is a variable so tests can avoid a live database.
var openMigrator = func(ctx context.Context, cfg config.Config) (migrator, error) {
	store, err := pgstore.NewStore(ctx, pgstore.StoreConfig{DSN: cfg.DB.DSN, MaxConns: 1})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return store, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if e.cfg.DB.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires db.driver=%s, got %q", config.DriverPostgres, e.cfg.DB.Driver)
			}
			m, err := openMigrator(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			e.logger.Info("schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
