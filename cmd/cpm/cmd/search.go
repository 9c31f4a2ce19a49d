package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the registry for published servers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		results, err := reg.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(results) == 0 {
			faint.Printf("no servers matching %q\n", args[0])
			return nil
		}
		for _, meta := range results {
			bold.Printf("%s", meta.Name)
			if latest := meta.Latest(); latest != "" {
				faint.Printf("@%s", latest)
			}
			fmt.Println()
			if meta.Description != "" {
				fmt.Printf("  %s\n", meta.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
