package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"quizdeck/internal/config"
	"quizdeck/internal/infra/filesystem"
	"quizdeck/internal/infra/postgres"
	"quizdeck/internal/logger"
)

// NewSeedCmd copies the on-disk catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import the course directory tree into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Format, cfg.Log.Level)
			if dir == "" {
				dir = cfg.Catalog.Dir
			}
			if dir == "" {
				return fmt.Errorf("catalog dir not configured")
			}

			courses, err := filesystem.NewCourseLoader(dir).LoadCourses(cmd.Context())
			if err != nil {
				return err
			}

			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrateDB(cmd.Context(), db); err != nil {
				return err
			}
			if err := postgres.SeedCourses(cmd.Context(), db, courses); err != nil {
				return err
			}
			slog.Info("catalog seeded", "dir", dir, "courses", len(courses))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "course directory (defaults to catalog.dir)")
	return cmd
}
