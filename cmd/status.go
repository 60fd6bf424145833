package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/trestlehq/trestle-mcp/internal/config"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session status",
		Long: `Show the status of the stored backend session.

This inspects the persisted session record without contacting the backend:
whether a session exists, who it belongs to, when it expires, and whether a
refresh credential is available once it does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			writeSessionStatus(cmd.OutOrStdout(), newSessionManager(cfg).Status(), cfg)
			return nil
		},
	}
}

func writeSessionStatus(w io.Writer, status trestle.SessionStatus, cfg *config.Config) {
	fmt.Fprintln(w, "Trestle Backend Session")
	fmt.Fprintf(w, "  Backend:   %s\n", cfg.APIURL)

	switch status.State {
	case trestle.StateValid:
		fmt.Fprintf(w, "  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	case trestle.StateStale:
		fmt.Fprintf(w, "  Status:    %s\n", text.FgYellow.Sprint("Expired"))
		if !status.HasRefreshToken {
			fmt.Fprintf(w, "             Run: trestle-mcp login\n")
		}
	default:
		fmt.Fprintf(w, "  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
		fmt.Fprintf(w, "             Run: trestle-mcp login\n")
		return
	}

	if status.Identity != "" {
		fmt.Fprintf(w, "  Identity:  %s\n", status.Identity)
	}
	if !status.AcquiredAt.IsZero() {
		fmt.Fprintf(w, "  Acquired:  %s\n", humanize.Time(status.AcquiredAt))
	}
	if !status.Expiry.IsZero() {
		fmt.Fprintf(w, "  Expires:   %s\n", formatExpiry(status.Expiry))
	}
	if status.HasRefreshToken {
		fmt.Fprintf(w, "  Refresh:   %s\n", text.FgGreen.Sprint("Available"))
	} else {
		fmt.Fprintf(w, "  Refresh:   %s\n", text.FgYellow.Sprint("Not available (full sign-in required on expiry)"))
	}
}

// formatExpiry renders the expiry relative to now, highlighted once it has
// passed.
func formatExpiry(expiry time.Time) string {
	if time.Until(expiry) > 0 {
		return humanize.Time(expiry)
	}
	return text.FgYellow.Sprint(humanize.Time(expiry))
}
