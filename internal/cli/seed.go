package cli

import (
	"fmt"

	"event-trivia-service/internal/infra/file"
	"event-trivia-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newSeedCmd loads a catalog file into the Postgres questions table.
func newSeedCmd(opts *options) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a question catalog file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg); err != nil {
				return err
			}

			questions, err := file.NewCatalogLoader(catalogPath).LoadCatalog(ctx)
			if err != nil {
				return err
			}

			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			if err := postgres.SeedCatalog(ctx, pool, questions); err != nil {
				return err
			}
			log.Info().Int("questions", len(questions)).Str("file", catalogPath).Msg("catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "file", "config/questions.yaml", "catalog file (YAML or JSON)")
	return cmd
}
