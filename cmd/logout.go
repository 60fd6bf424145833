package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trestlehq/trestle-mcp/internal/config"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete the stored session",
		Long: `Sign out of the Trestle backend by deleting the persisted session record.

The backend itself is not contacted; the stored tokens are removed so that
later commands and tool calls start unauthenticated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			manager := newSessionManager(cfg)
			hadSession := manager.Status().State != trestle.StateAbsent
			if err := manager.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}

			if hadSession {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out. The stored session has been removed.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored session.")
			}
			return nil
		},
	}
}
