package cmd

import (
	"fmt"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:     "install [name[@range]...]",
	Aliases: []string{"i"},
	Short:   "Resolve declared servers and write the lockfile",
	Long: `Resolve every server declared in server.json to an exact version and
record the result in server-lock.json. With names, first fetch those
servers from the registry, add them to the project, then resolve.

With --frozen-lockfile nothing is written: the command fails unless the
existing lockfile already satisfies every declaration. Use it in CI.

Examples:
  cpm install
  cpm install filesystem
  cpm install filesystem@^2.0.0 --dev
  cpm install --frozen-lockfile`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		ls := ctx.Local()
		if ls == nil {
			return fmt.Errorf("install needs a project (run cpm init first)")
		}

		frozen, _ := cmd.Flags().GetBool("frozen-lockfile")
		dev, _ := cmd.Flags().GetBool("dev")

		if frozen && len(args) > 0 {
			return fmt.Errorf("--frozen-lockfile cannot be combined with new servers")
		}

		reg, err := newRegistry()
		if err != nil {
			return err
		}

		for _, arg := range args {
			name, rng := splitNameRange(arg)
			if err := installFromRegistry(cmd, ls, reg, name, rng, dev); err != nil {
				return err
			}
		}

		manifest, err := ls.LoadManifest()
		if err != nil {
			return err
		}

		lm := core.NewLockfileManager(ls.LockfilePath())
		lf, err := lm.Resolve(cmd.Context(), manifest, ls, reg, frozen)
		if err != nil {
			return err
		}

		if frozen {
			green.Printf("✓ lockfile satisfies all %d declarations\n", len(lf.Servers))
			return nil
		}

		green.Printf("✓ locked %d servers in %s\n", len(lf.Servers), core.LockfileFileName)
		return nil
	},
}

// splitNameRange splits "name@range" into its parts. A bare name has an
// empty range (resolved as latest).
func splitNameRange(arg string) (name, rng string) {
	if i := strings.LastIndex(arg, "@"); i > 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

// installFromRegistry fetches a server definition from the registry and
// adds it to the project under the given range.
func installFromRegistry(cmd *cobra.Command, ls *core.LocalStore, reg core.Registry, name, rng string, dev bool) error {
	resolved, err := reg.ResolveVersion(cmd.Context(), name, rng)
	if err != nil {
		return err
	}
	if resolved.Server == nil {
		return fmt.Errorf("registry has no definition for %s@%s", name, resolved.Version)
	}

	s := resolved.Server.Clone()
	s.Name = name
	s.Version = resolved.Version

	add := ls.AddServer
	if dev {
		add = ls.AddDevServer
	}
	if err := add(s, true); err != nil {
		return err
	}

	if rng != "" {
		// Record the requested range rather than the derived caret range.
		if err := ls.SetDeclaredRange(name, rng, dev); err != nil {
			return err
		}
	}

	green.Printf("✓ installed %s@%s\n", name, resolved.Version)
	return nil
}

func init() {
	installCmd.Flags().Bool("frozen-lockfile", false, "Fail instead of updating the lockfile")
	installCmd.Flags().Bool("dev", false, "Declare new servers under devServers")
	rootCmd.AddCommand(installCmd)
}
