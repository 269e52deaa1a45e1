package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"

	"github.com/spf13/cobra"
)

var (
	keysURL    string
	keysAPIKey string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the session signing keys of a running service",
	Long: `Talks to a running auth service with the service key. Rotation is only
available when the service runs with persistent keys.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys that still verify sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := keysClient().ListKeys(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KID\tALGORITHM\tCREATED\tRETIRED\tEXPIRES")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				k.Kid, k.Algorithm, k.CreatedAt.Format(time.RFC3339), optionalTime(k.RetiredAt), optionalTime(k.ExpiresAt))
		}
		return w.Flush()
	},
}

var keysRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Generate a new signing key and retire the current one",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := keysClient().RotateKey(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signing with %s (%d keys verifying)\n", resp.NewKey.Kid, resp.ActiveKeys)
		return nil
	},
}

func keysClient() *authsdk.Client {
	return authsdk.NewClient(keysURL, keysAPIKey)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func init() {
	keysCmd.PersistentFlags().StringVar(&keysURL, "url", "http://localhost:8080", "base URL of the auth service")
	keysCmd.PersistentFlags().StringVar(&keysAPIKey, "api-key", os.Getenv("AUTH_API_KEY"), "service key (default $AUTH_API_KEY)")

	keysCmd.AddCommand(keysListCmd, keysRotateCmd)
	rootCmd.AddCommand(keysCmd)
}
