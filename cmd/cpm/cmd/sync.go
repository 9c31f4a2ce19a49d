package cmd

import (
	"fmt"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/barysiuk/cpm/internal/core/client"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [name|@group...]",
	Short: "Reconcile client configs with the selected servers",
	Long: `Write the selected servers (default: all servers in the active scope)
into the config files of the target MCP clients. Entries cpm wrote before
but that are no longer selected get removed; entries you added to a client
by hand are never touched.

Failures are per-client: one unwritable config never blocks the rest.

Examples:
  cpm sync
  cpm sync @dev
  cpm sync filesystem --to cursor,claude-desktop
  cpm sync --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		var servers []*core.Server
		if len(args) > 0 {
			// Resolve per-reference: a bad ref is warned about, the rest
			// still sync.
			seen := map[string]bool{}
			failed := 0
			for _, ref := range args {
				resolved, err := core.Resolve(ctx.Store, ref)
				if err != nil {
					failed++
					yellow.Printf("! skipping %s: %v\n", ref, err)
					continue
				}
				for _, s := range resolved {
					if !seen[s.Name] {
						seen[s.Name] = true
						servers = append(servers, s)
					}
				}
			}
			if failed == len(args) {
				return fmt.Errorf("nothing to sync: no reference resolved")
			}
		} else {
			servers, err = ctx.Store.ListServers()
			if err != nil {
				return err
			}
		}

		targets, err := resolveTargetClients(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if dryRun {
			bold.Println("dry run, nothing will be written")
		}
		fmt.Printf("syncing %d servers to %d clients (%s scope)\n", len(servers), len(targets), ctx.Scope)

		// Explicitly named clients may get a fresh config file; passively
		// detected ones must already have one.
		toFlag, _ := cmd.Flags().GetString("to")

		results, err := client.Apply(servers, client.Options{
			Clients:   targets,
			StatePath: statePath(ctx),
			DryRun:    dryRun,
			Create:    toFlag != "",
		})
		if err != nil {
			return err
		}
		return printSyncResults(results, dryRun)
	},
}

func init() {
	addToFlag(syncCmd)
	syncCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	rootCmd.AddCommand(syncCmd)
}
