package cmd

import (
	"fmt"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

var lsCmd = &cobra.Command{
	Use:     "ls [@group]",
	Aliases: []string{"list"},
	Short:   "List servers in the active scope",
	Long: `List server definitions, optionally restricted to one group.

Examples:
  cpm ls
  cpm ls @dev
  cpm ls --global`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		var servers []*core.Server
		if len(args) == 1 {
			servers, err = core.Resolve(ctx.Store, args[0])
		} else {
			servers, err = ctx.Store.ListServers()
		}
		if err != nil {
			return err
		}

		if len(servers) == 0 {
			faint.Printf("no servers in %s scope\n", ctx.Scope)
			return nil
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			}).
			Headers("NAME", "KIND", "TARGET", "VERSION", "GROUPS")

		for _, s := range servers {
			target := s.Command
			if len(s.Args) > 0 {
				target += " " + strings.Join(s.Args, " ")
			}
			if s.Kind() == core.KindRemote {
				target = s.URL
			}
			version := s.Version
			if version == "" {
				version = "-"
			}
			groups := strings.Join(s.Groups, ", ")
			if groups == "" {
				groups = "-"
			}
			t.Row(s.Name, string(s.Kind()), target, version, groups)
		}

		fmt.Println(t)
		faint.Printf("%d servers (%s scope)\n", len(servers), ctx.Scope)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
