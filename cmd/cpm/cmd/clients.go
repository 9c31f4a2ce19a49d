package cmd

import (
	"fmt"

	"github.com/barysiuk/cpm/internal/core/client"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List supported MCP clients and their detection status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			}).
			Headers("NAME", "CLIENT", "DETECTED", "REMOTE", "CONFIG")

		detected := 0
		for _, c := range client.All() {
			status := "-"
			if c.IsInstalled() {
				status = "yes"
				detected++
			}
			remote := "-"
			if c.SupportsRemote() {
				remote = "yes"
			}
			t.Row(c.Name(), c.DisplayName(), status, remote, c.ConfigPath())
		}

		fmt.Println(t)
		faint.Printf("%d of %d clients detected\n", detected, len(client.All()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientsCmd)
}
