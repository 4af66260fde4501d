package cmd

import (
	"github.com/spf13/cobra"

	"stocksim/database"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users and transactions tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("Database migrated")
		return nil
	},
}
