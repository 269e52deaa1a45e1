package cmd

import (
	"os"

	"github.com/aussiebroadwan/pocketbook/internal/auth/app"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "auth",
	Short: "Pocketbook authentication service",
	Long: `Credentials, sessions, MFA records and MFA challenges for Pocketbook.

Configuration is read from defaults, then the TOML file given by --config
(or $AUTH_CONFIG), then AUTH_* environment variables.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $"+app.ConfigEnv+")")
}

func loadConfig() (app.Config, error) {
	return app.LoadConfig(configPath)
}
