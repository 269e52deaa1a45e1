package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aussiebroadwan/pocketbook/internal/auth/app"
	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"

	"github.com/spf13/cobra"
)

// TokenEnv holds the session token used by commands that need one.
const TokenEnv = "AUTHCTL_TOKEN"

var (
	serviceURL string
	apiKey     string
	configPath string
	dbPath     string
	token      string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "Sign in, enroll MFA and manage accounts from the terminal",
	Long: `authctl drives the Pocketbook sign-in flow.

With --url it talks to a running auth service. Without it the auth database
is opened directly, using the same configuration as the service (--config,
$AUTH_CONFIG and AUTH_* variables).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serviceURL, "url", "", "base URL of the auth service; the database is opened directly when empty")
	pf.StringVar(&apiKey, "api-key", os.Getenv("AUTH_API_KEY"), "service key sent with --url (default $AUTH_API_KEY)")
	pf.StringVar(&configPath, "config", "", "TOML config used without --url (default $"+app.ConfigEnv+")")
	pf.StringVar(&dbPath, "db", "", "database file used without --url (overrides config)")
	pf.StringVar(&token, "token", os.Getenv(TokenEnv), "session token (default $"+TokenEnv+")")
	pf.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log backend activity to stderr")
}

// flow is one orchestrator bound to a backend for the life of a command.
type flow struct {
	*authflow.Orchestrator
	ctx   context.Context
	close func()
}

func openFlow(cmd *cobra.Command) (*flow, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := slogx.New(slogx.Config{
		Service: "authctl",
		Version: app.BuildVersion,
		Level:   level,
		Format:  "pretty",
		Output:  cmd.ErrOrStderr(),
	})
	ctx := slogx.WithContext(cmd.Context(), logger)

	if serviceURL != "" {
		opts := authsdk.NewClient(serviceURL, apiKey).Options()
		return &flow{Orchestrator: authflow.New(opts), ctx: ctx, close: func() {}}, nil
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DatabaseFile = dbPath
	}

	a, err := app.NewWithLogger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &flow{
		Orchestrator: authflow.New(a.Backend().Options()),
		ctx:          ctx,
		close:        func() { _ = a.Shutdown() },
	}, nil
}

// restore adopts the --token session.
func (f *flow) restore() error {
	if token == "" {
		return fmt.Errorf("a session token is required (--token or $%s)", TokenEnv)
	}
	return failure(f.RestoreSession(f.ctx, token))
}

// failure turns an unsuccessful result into an error.
func failure(res authflow.Result) error {
	if res.Success {
		return nil
	}
	if res.Error == nil {
		return errors.New("operation failed")
	}
	return res.Error
}

// render prints v as JSON with --json and calls human otherwise.
func render(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

// prompter reads answers from the command's stdin. Prompts go to stderr so
// they never mix with --json output.
type prompter struct {
	cmd *cobra.Command
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, r: bufio.NewReader(cmd.InOrStdin())}
}

// ask returns the trimmed answer, or "" at end of input.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.cmd.ErrOrStderr(), question)
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// value returns flagValue when set and asks otherwise.
func (p *prompter) value(flagValue, question string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return p.ask(question)
}
