package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/trestlehq/trestle-mcp/internal/config"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func newLoginCmd() *cobra.Command {
	var (
		noBrowser bool
		useStdin  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Trestle backend",
		Long: `Sign in to the Trestle backend and persist the session for later use.

By default a local sign-in page is opened in your browser; the submitted
credentials are exchanged for a session. The session record is stored in
your user config directory and reused by the MCP server and by other
commands until it expires or you log out.

Examples:
  trestle-mcp login                # Browser-based sign-in
  trestle-mcp login --no-browser   # Print the sign-in URL instead of opening it
  trestle-mcp login --stdin        # Prompt for credentials on the terminal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if useStdin {
				return runStdinLogin(cmd.Context(), cfg)
			}
			return runBrowserLogin(cmd.Context(), cfg, noBrowser)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Prompt for credentials on the terminal instead of via browser")

	return cmd
}

func runBrowserLogin(ctx context.Context, cfg *config.Config, noBrowser bool) error {
	var spin *spinner.Spinner

	interactive := &trestle.Interactive{
		Addr:    cfg.LoginAddr,
		Timeout: cfg.LoginTimeout,
		OnURL: func(url string) {
			if noBrowser {
				fmt.Printf("Open this URL in your browser to sign in:\n\n  %s\n\n", url)
			} else {
				fmt.Println("Opening browser for sign-in...")
				fmt.Printf("If the browser does not open, use this URL:\n\n  %s\n\n", url)
			}
			spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			spin.Suffix = " Waiting for sign-in to complete..."
			spin.Start()
		},
	}
	if noBrowser {
		interactive.OpenBrowser = func(string) error { return nil }
	}

	manager := newSessionManager(cfg, trestle.WithAuthenticator(interactive))
	session, err := manager.Authenticate(ctx)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	printLoginSuccess(session)
	return nil
}

func runStdinLogin(ctx context.Context, cfg *config.Config) error {
	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	session, err := newSessionManager(cfg).Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	printLoginSuccess(session)
	return nil
}

// promptCredentials reads the email and password from the terminal, masking
// the password input.
func promptCredentials() (string, string, error) {
	rl, err := readline.New("Email: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to open terminal prompt: %w", err)
	}
	defer rl.Close()

	email, err := rl.Readline()
	if err != nil {
		return "", "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", errors.New("email must not be empty")
	}

	password, err := rl.ReadPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	if len(password) == 0 {
		return "", "", errors.New("password must not be empty")
	}

	return email, string(password), nil
}

func printLoginSuccess(session *trestle.Session) {
	if session.Identity != "" {
		fmt.Printf("%s Signed in as %s\n", text.FgGreen.Sprint("✓"), session.Identity)
	} else {
		fmt.Printf("%s Signed in\n", text.FgGreen.Sprint("✓"))
	}
	fmt.Printf("Session expires %s\n", humanize.Time(session.Expiry))
}

// newSessionManager builds a session manager for the CLI commands, which use
// the store and exchange directly rather than through a server context. CLI
// output stays readable: session logs only surface at warn level and above.
func newSessionManager(cfg *config.Config, opts ...trestle.ManagerOption) *trestle.Manager {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := trestle.NewStore(cfg.SessionPath())
	exchange := trestle.NewExchange(cfg.APIURL, logger)
	managerOpts := append([]trestle.ManagerOption{
		trestle.WithLogger(logger),
		trestle.WithLifetime(cfg.TokenLifetime, cfg.ExpiryMargin),
	}, opts...)
	return trestle.NewManager(store, exchange, managerOpts...)
}
