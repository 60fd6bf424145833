package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trestlehq/trestle-mcp/internal/config"
)

// rootCmd represents the base command for the trestle-mcp application
var rootCmd = &cobra.Command{
	Use:   "trestle-mcp",
	Short: "MCP gateway for the Trestle helpdesk backend",
	Long: `trestle-mcp exposes the Trestle helpdesk backend to AI assistants as an
MCP (Model Context Protocol) server. It keeps a backend session alive
across tool calls: signing in, persisting the session record, and
refreshing the access token before it lapses.

It can run as:
  - An MCP server over stdio or streamable HTTP (default)
  - A CLI for managing the backend session (login, logout, status)`,
	SilenceUsage: true,
}

// configFile is the optional path of an explicit config file, shared by all
// subcommands via the persistent --config flag.
var configFile string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "trestle-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// The session configuration flags apply to every subcommand, so they are
	// declared once as persistent flags and bound into viper here.
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: config.yaml in the trestle-mcp config dir)")
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
