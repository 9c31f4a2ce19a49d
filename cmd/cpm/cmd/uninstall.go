package cmd

import (
	"github.com/barysiuk/cpm/internal/core"
	"github.com/barysiuk/cpm/internal/core/client"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name|@group>...",
	Short: "Remove cpm-written entries from client configs",
	Long: `Remove the named servers from client config files. Only entries cpm
owns are touched; hand-written entries with the same name stay. The server
definitions themselves remain in the store (use cpm remove for that).

Examples:
  cpm uninstall filesystem
  cpm uninstall @dev --to cursor`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		// Expand group refs against the store; plain names pass through
		// even when no longer defined, so configs can always be cleaned.
		var names []string
		seen := map[string]bool{}
		for _, ref := range args {
			if !core.IsGroupRef(ref) {
				if !seen[ref] {
					seen[ref] = true
					names = append(names, ref)
				}
				continue
			}
			servers, err := core.Resolve(ctx.Store, ref)
			if err != nil {
				return err
			}
			for _, s := range servers {
				if !seen[s.Name] {
					seen[s.Name] = true
					names = append(names, s.Name)
				}
			}
		}

		targets, err := resolveTargetClients(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		results, err := client.Remove(names, client.Options{
			Clients:   targets,
			StatePath: statePath(ctx),
			DryRun:    dryRun,
		})
		if err != nil {
			return err
		}
		return printSyncResults(results, dryRun)
	},
}

func init() {
	addToFlag(uninstallCmd)
	uninstallCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	rootCmd.AddCommand(uninstallCmd)
}
