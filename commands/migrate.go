package commands

import (
	"pgstay/config"
	"pgstay/database"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}
