package main

import (
	"authentication_api/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply all pending embedded migrations to the configured sqlite or postgres database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if cfg.DB.Driver == config.DriverMemory {
				cmd.Println("memory driver: nothing to migrate")
				return nil
			}

			cmd.Println("Running migrations...")
			sqlDB, _, err := openSQL(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = sqlDB.Close() }()

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}
