package cmd

import (
	"fmt"
	"os"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a server.json manifest in the current directory",
	Long: `Create a server.json manifest, turning the current directory into a cpm
project. Subsequent commands run here operate on the local scope.

Examples:
  cpm init
  cpm init my-agent-workbench`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		store, err := core.InitProject(dir, name)
		if err != nil {
			return err
		}

		green.Printf("✓ created %s\n", store.ManifestPath())
		faint.Println("  add servers with: cpm add <name> --command <cmd>")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
