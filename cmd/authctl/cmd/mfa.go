package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	setupSecret     string
	disablePassword string
)

var mfaCmd = &cobra.Command{
	Use:   "mfa",
	Short: "Manage two-factor authentication for the session's account",
}

var mfaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether MFA is enabled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		if err := f.restore(); err != nil {
			return err
		}
		status := f.MFAStatus()
		return render(cmd, status, func(w io.Writer) {
			fmt.Fprintf(w, "enabled: %t\nsetup completed: %t\n", status.Enabled, status.SetupCompleted)
		})
	},
}

var mfaEnrollCmd = &cobra.Command{
	Use:     "enroll",
	Aliases: []string{"setup"},
	Short:   "Start authenticator enrollment",
	Long: `Generates a new TOTP secret and recovery codes, then asks for a code from
the authenticator to finish enrollment. When no code is entered the secret
stays pending and "authctl mfa confirm" finishes the job later.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		if err := f.restore(); err != nil {
			return err
		}
		res := f.SetupMFA(f.ctx)
		if err := failure(res.Result); err != nil {
			return err
		}
		if err := render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "add this account to your authenticator:\n  %s\n\nsecret: %s\n\n", res.URI, res.Secret)
			printCodes(w, res.RecoveryCodes)
		}); err != nil {
			return err
		}

		code, err := newPrompter(cmd).value(mfaCode, "Code from the authenticator (empty to finish later): ")
		if err != nil {
			return err
		}
		if code == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "enrollment pending, finish with: authctl mfa confirm --secret %s --code CODE\n", res.Secret)
			return nil
		}
		return confirm(cmd, f, code, res.Secret)
	},
}

var mfaConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Finish a pending enrollment with a code from the authenticator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := newPrompter(cmd).value(mfaCode, "Code from the authenticator: ")
		if err != nil {
			return err
		}

		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		if err := f.restore(); err != nil {
			return err
		}
		return confirm(cmd, f, code, setupSecret)
	},
}

func confirm(cmd *cobra.Command, f *flow, code, secret string) error {
	res := f.CompleteMFASetup(f.ctx, code, secret)
	if err := failure(res.Result); err != nil {
		return err
	}
	return render(cmd, res, func(w io.Writer) {
		fmt.Fprintln(w, "two-factor authentication enabled")
	})
}

var mfaDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn MFA off after confirming the password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := newPrompter(cmd).value(disablePassword, "Password: ")
		if err != nil {
			return err
		}

		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		if err := f.restore(); err != nil {
			return err
		}
		res := f.DisableMFA(f.ctx, pw)
		if err := failure(res); err != nil {
			return err
		}
		return render(cmd, f.MFAStatus(), func(w io.Writer) {
			fmt.Fprintln(w, "two-factor authentication disabled")
		})
	},
}

var mfaCodesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the unused recovery codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		if err := f.restore(); err != nil {
			return err
		}
		res := f.GetRecoveryCodes(f.ctx)
		if err := failure(res.Result); err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) { printCodes(w, res.RecoveryCodes) })
	},
}

func printCodes(w io.Writer, codes []string) {
	if len(codes) == 0 {
		fmt.Fprintln(w, "no recovery codes left")
		return
	}
	fmt.Fprintln(w, "recovery codes (each works once):")
	for _, c := range codes {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

func init() {
	mfaEnrollCmd.Flags().StringVar(&mfaCode, "code", "", "authenticator code (prompted when empty)")

	mfaConfirmCmd.Flags().StringVar(&setupSecret, "secret", "", "secret printed by mfa setup")
	mfaConfirmCmd.Flags().StringVar(&mfaCode, "code", "", "authenticator code (prompted when empty)")
	_ = mfaConfirmCmd.MarkFlagRequired("secret")

	mfaDisableCmd.Flags().StringVar(&disablePassword, "password", "", "account password (prompted when empty)")

	mfaCmd.AddCommand(mfaStatusCmd, mfaEnrollCmd, mfaConfirmCmd, mfaDisableCmd, mfaCodesCmd)
	rootCmd.AddCommand(mfaCmd)
}
