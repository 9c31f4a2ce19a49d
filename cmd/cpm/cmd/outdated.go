package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Show locked servers with newer published versions",
	Long: `Compare server-lock.json against the registry. "Wanted" is the newest
version the declared range allows; "Latest" is the registry's latest tag.

Exits zero even when servers are outdated; this is a report, not a check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		ls := ctx.Local()
		if ls == nil {
			return fmt.Errorf("outdated needs a project (run cpm init first)")
		}

		manifest, err := ls.LoadManifest()
		if err != nil {
			return err
		}
		lf, err := core.NewLockfileManager(ls.LockfilePath()).Load()
		if err != nil {
			return err
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		names := manifest.DeclaredNames()
		sort.Strings(names)

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			}).
			Headers("NAME", "CURRENT", "WANTED", "LATEST")

		rows := 0
		for _, name := range names {
			rng, _ := manifest.DeclaredRange(name)

			current := "-"
			if lf != nil {
				if entry, ok := lf.Servers[name]; ok {
					current = entry.Version
				}
			}

			meta, err := reg.GetServer(cmd.Context(), name)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					// Locally defined servers have nothing to compare against.
					continue
				}
				return err
			}
			wanted := current
			if resolved, err := core.ResolveAgainstMetadata(meta, rng); err == nil {
				wanted = resolved.Version
			}
			latest := meta.Latest()

			if current == wanted && (latest == "" || current == latest) {
				continue
			}
			t.Row(name, current, wanted, latest)
			rows++
		}

		if rows == 0 {
			green.Println("✓ everything up to date")
			return nil
		}
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outdatedCmd)
}
