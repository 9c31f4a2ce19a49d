package cmd

import (
	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <name> [-- extra args...]",
	Short: "Run a stdio server in the foreground",
	Long: `Launch a stdio server's process with its configured arguments and
environment, wiring it to this terminal. Useful for smoke-testing a server
before pointing a client at it.

Examples:
  cpm run filesystem
  cpm run filesystem -- --readonly`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		s, err := ctx.Store.GetServer(args[0])
		if err != nil {
			return err
		}

		faint.Printf("running %s: %s\n", s.Name, s.Command)
		return core.Run(cmd.Context(), s, core.RunOptions{
			ExtraArgs: args[1:],
			Dir:       ctx.ProjectDir,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
