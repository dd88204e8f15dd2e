package commands

import (
	"github.com/spf13/cobra"

	"order-assistant/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}
