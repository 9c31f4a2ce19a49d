package cmd

import (
	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name|@group>...",
	Aliases: []string{"rm"},
	Short:   "Remove server definitions from the active scope",
	Long: `Remove servers from the store. Group references (@name) expand to the
group's members; the group record itself survives, as do any client config
entries (run cpm uninstall to clean those up).

Examples:
  cpm remove filesystem
  cpm remove @dev`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		servers, err := core.ResolveAll(ctx.Store, args)
		if err != nil {
			return err
		}

		for _, s := range servers {
			if err := ctx.Store.RemoveServer(s.Name); err != nil {
				return err
			}
			green.Printf("✓ removed %q from %s scope\n", s.Name, ctx.Scope)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
