package cmd

import (
	"fmt"

	"github.com/aussiebroadwan/pocketbook/internal/auth/app"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
