package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show the full definition of one server",
	Long: `Show every field of a server definition, plus its lock entry when the
project has one.

Examples:
  cpm info filesystem`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		s, err := ctx.Store.GetServer(args[0])
		if err != nil {
			return err
		}

		bold.Println(s.Name)
		fmt.Printf("  scope:    %s\n", ctx.Scope)
		fmt.Printf("  kind:     %s\n", s.Kind())
		if s.Kind() == core.KindStdio {
			fmt.Printf("  command:  %s\n", s.Command)
			if len(s.Args) > 0 {
				fmt.Printf("  args:     %s\n", strings.Join(s.Args, " "))
			}
			printSortedMap("  env", s.Env, true)
		} else {
			fmt.Printf("  url:      %s\n", s.URL)
			if s.Type != "" {
				fmt.Printf("  type:     %s\n", s.Type)
			}
			printSortedMap("  headers", s.Headers, true)
		}
		if s.Version != "" {
			fmt.Printf("  version:  %s\n", s.Version)
		}
		if len(s.Groups) > 0 {
			fmt.Printf("  groups:   %s\n", strings.Join(s.Groups, ", "))
		}

		if ls := ctx.Local(); ls != nil {
			lf, err := core.NewLockfileManager(ls.LockfilePath()).Load()
			if err != nil {
				return err
			}
			if lf != nil {
				if entry, ok := lf.Servers[s.Name]; ok {
					fmt.Println()
					bold.Println("lock entry")
					fmt.Printf("  version:   %s\n", entry.Version)
					fmt.Printf("  resolved:  %s\n", entry.Resolved)
					fmt.Printf("  integrity: %s\n", entry.Integrity)
				}
			}
		}
		return nil
	},
}

// printSortedMap prints a string map with deterministic key order. Values
// are masked for env/header maps when mask is set, since those commonly
// hold secrets.
func printSortedMap(label string, m map[string]string, mask bool) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", label)
	for _, k := range keys {
		v := m[k]
		if mask && len(v) > 4 {
			v = v[:2] + strings.Repeat("*", 6)
		}
		fmt.Printf("    %s=%s\n", k, v)
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
