package cmd

import (
	"fmt"

	"github.com/aussiebroadwan/pocketbook/internal/auth/app"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := app.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.DatabaseFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
