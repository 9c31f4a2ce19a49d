package cmd

import (
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env <name> [KEY=VALUE...]",
	Short: "Show or change a server's environment variables",
	Long: `Without pairs, print the server's environment variables. With KEY=VALUE
pairs, set them on top of the existing ones; a bare KEY= removes that key.
In a project the result is mirrored into server.json's config section.

Examples:
  cpm env db
  cpm env db PGHOST=db.internal PGPORT=5433
  cpm env db PGPORT=`,
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

		if len(args) == 1 {
			if len(s.Env) == 0 {
				faint.Printf("no environment variables for %q\n", s.Name)
				return nil
			}
			printSortedMap("env", s.Env, true)
			return nil
		}

		pairs, err := parseKeyValues(args[1:], "env")
		if err != nil {
			return err
		}
		env := map[string]string{}
		for k, v := range s.Env {
			env[k] = v
		}
		for k, v := range pairs {
			if v == "" {
				delete(env, k)
				continue
			}
			env[k] = v
		}

		if err := ctx.Store.UpdateServerEnv(s.Name, env); err != nil {
			return err
		}
		green.Printf("✓ env for %q updated (%d variables)\n", s.Name, len(env))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
