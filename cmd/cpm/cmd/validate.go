package cmd

import (
	"fmt"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the active scope for inconsistencies",
	Long: `Check that every definition is well-formed, that server.json, the
definitions and server-lock.json agree, and that group memberships point at
real servers. With --integrity, also re-verify lock entries against the
registry.

Exits non-zero when problems are found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		var problems []string

		if ls := ctx.Local(); ls != nil {
			problems, err = ls.Validate()
			if err != nil {
				return err
			}

			manifest, err := ls.LoadManifest()
			if err != nil {
				return err
			}
			lf, err := core.NewLockfileManager(ls.LockfilePath()).Load()
			if err != nil {
				return err
			}
			for _, v := range core.Verify(manifest, lf) {
				problems = append(problems, v.String())
			}

			if integrity, _ := cmd.Flags().GetBool("integrity"); integrity {
				reg, err := newRegistry()
				if err != nil {
					return err
				}
				violations, err := core.VerifyIntegrity(cmd.Context(), lf, reg)
				if err != nil {
					return err
				}
				for _, v := range violations {
					problems = append(problems, v.String())
				}
			}
		} else {
			servers, err := ctx.Store.ListServers()
			if err != nil {
				return err
			}
			for _, s := range servers {
				if err := core.ValidateServer(s); err != nil {
					problems = append(problems, err.Error())
				}
			}
		}

		if len(problems) == 0 {
			green.Printf("✓ %s scope is consistent\n", ctx.Scope)
			return nil
		}
		for _, p := range problems {
			red.Printf("✗ %s\n", p)
		}
		return fmt.Errorf("%d problems found", len(problems))
	},
}

func init() {
	validateCmd.Flags().Bool("integrity", false, "Also verify lock entries against the registry")
	rootCmd.AddCommand(validateCmd)
}
