package cmd

import (
	"fmt"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [name...]",
	Short: "Re-resolve locked servers to the newest satisfying versions",
	Long: `Refresh server-lock.json: each declared server is re-resolved to the
newest version its range in server.json allows, discarding the current pin.
Names restrict the refresh to those servers.

Examples:
  cpm update
  cpm update filesystem`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		ls := ctx.Local()
		if ls == nil {
			return fmt.Errorf("update needs a project (run cpm init first)")
		}

		manifest, err := ls.LoadManifest()
		if err != nil {
			return err
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		lm := core.NewLockfileManager(ls.LockfilePath())
		before, err := lm.Load()
		if err != nil {
			return err
		}

		lf, err := lm.Update(cmd.Context(), manifest, ls, reg, args)
		if err != nil {
			return err
		}

		changed := 0
		for name, entry := range lf.Servers {
			old := ""
			if before != nil {
				old = before.Servers[name].Version
			}
			if old != entry.Version {
				changed++
				if old == "" {
					green.Printf("✓ %s locked at %s\n", name, entry.Version)
				} else {
					green.Printf("✓ %s %s -> %s\n", name, old, entry.Version)
				}
			}
		}
		if changed == 0 {
			faint.Println("everything already up to date")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
