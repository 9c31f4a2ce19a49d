package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cpm",
	Short: "Package manager for MCP servers",
	Long: `cpm tracks MCP server definitions the way npm tracks packages.

Keep a global catalog of servers, declare per-project dependencies in
server.json, pin exact versions in server-lock.json, organize servers into
groups, and sync everything into the config files of your MCP clients
(Claude Desktop, Cursor, VS Code, and friends) without clobbering what you
put there by hand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cpm %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("local", false, "Operate on the current project (requires server.json)")
	rootCmd.PersistentFlags().Bool("global", false, "Operate on the user-wide store")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
