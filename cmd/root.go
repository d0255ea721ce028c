package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the authapi command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "authapi",
		Short:        "Credential management and token issuance service",
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, _ []string) error { return runServe(cmd, v) },
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default configs/config.yml)")
	cmd.PersistentFlags().String("port", "", "HTTP port")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(NewServeCmd(v))
	cmd.AddCommand(NewMigrateCmd(v))

	return cmd
}
