package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"

	"github.com/spf13/cobra"
)

var (
	password    string
	displayName string
	currency    string
	mfaCode     string
)

type signUpOutput struct {
	Identity          *authflow.Identity  `json:"identity"`
	NeedsVerification bool                `json:"needs_verification"`
	ProfileError      *authflow.ErrorInfo `json:"profile_error,omitempty"`
}

type sessionOutput struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	Identity  *authflow.Identity `json:"identity"`
	MFA       authflow.MFAStatus `json:"mfa"`
}

var signUpCmd = &cobra.Command{
	Use:   "signup EMAIL",
	Short: "Register a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := newPrompter(cmd).value(password, "Password: ")
		if err != nil {
			return err
		}

		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		res := f.SignUp(f.ctx, args[0], pw, authflow.ProfileFields{DisplayName: displayName, Currency: currency})
		if err := failure(res.Result); err != nil {
			return err
		}

		out := signUpOutput{Identity: res.Identity, NeedsVerification: res.NeedsVerification, ProfileError: res.ProfileError}
		return render(cmd, out, func(w io.Writer) {
			fmt.Fprintf(w, "registered %s (%s)\n", res.Identity.Email, res.Identity.ID)
			if res.NeedsVerification {
				fmt.Fprintln(w, "check your inbox to confirm the address before signing in")
			}
			if res.ProfileError != nil {
				fmt.Fprintf(w, "warning: profile not created: %s\n", res.ProfileError.Message)
			}
		})
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin EMAIL",
	Short: "Sign in and print a session token",
	Long: `Signs in with email and password. When the account has MFA enabled the
command asks for an authenticator code or a recovery code and signs in again
once the code is accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		pw, err := p.value(password, "Password: ")
		if err != nil {
			return err
		}

		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		email := args[0]
		res := f.SignIn(f.ctx, email, pw)
		if res.RequiresMFA {
			code, err := p.value(mfaCode, "Authentication or recovery code: ")
			if err != nil {
				return err
			}
			if err := failure(verifyCode(f, code, res.Ticket)); err != nil {
				return err
			}
			res = f.SignIn(f.ctx, email, pw)
		}
		if err := failure(res.Result); err != nil {
			return err
		}

		sess, id := f.Session(), f.Identity()
		out := sessionOutput{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Identity: id, MFA: f.MFAStatus()}
		return render(cmd, out, func(w io.Writer) {
			fmt.Fprintf(w, "signed in as %s, session expires %s\n", id.Email, sess.ExpiresAt.Format(time.RFC3339))
			fmt.Fprintf(w, "export %s=%s\n", TokenEnv, sess.Token)
		})
	},
}

// verifyCode answers an MFA ticket. Six digits are treated as a TOTP code
// and anything else as a recovery code.
func verifyCode(f *flow, code, ticket string) authflow.Result {
	if isTOTP(code) {
		return f.VerifyMFACode(f.ctx, code, ticket)
	}
	return f.VerifyRecoveryCode(f.ctx, code, ticket)
}

func isTOTP(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Revoke the session token",
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
		res := f.SignOut(f.ctx)
		if err := failure(res); err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) { fmt.Fprintln(w, "signed out") })
	},
}

var whoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the session token",
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
		sess, id := f.Session(), f.Identity()
		out := sessionOutput{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Identity: id, MFA: f.MFAStatus()}
		return render(cmd, out, func(w io.Writer) {
			fmt.Fprintf(w, "%s (%s)\n", id.Email, id.ID)
			fmt.Fprintf(w, "mfa enabled: %t\n", out.MFA.Enabled)
			fmt.Fprintf(w, "session expires %s\n", sess.ExpiresAt.Format(time.RFC3339))
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password EMAIL",
	Short: "Email a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFlow(cmd)
		if err != nil {
			return err
		}
		defer f.close()

		res := f.RequestPasswordReset(f.ctx, args[0])
		if err := failure(res); err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintln(w, "if the address is registered a reset link is on its way")
		})
	},
}

func init() {
	signUpCmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	signUpCmd.Flags().StringVar(&displayName, "display-name", "", "profile display name")
	signUpCmd.Flags().StringVar(&currency, "currency", "", "profile currency code, e.g. AUD")

	signInCmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	signInCmd.Flags().StringVar(&mfaCode, "code", "", "authenticator or recovery code (prompted when required)")

	rootCmd.AddCommand(signUpCmd, signInCmd, signOutCmd, whoAmICmd, resetPasswordCmd)
}
