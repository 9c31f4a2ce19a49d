package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Organize servers into named groups",
	Long: `Groups are named sets of servers for bulk operations: anywhere a command
takes a server name, @group expands to the group's members.`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		if err := ctx.Store.UpsertGroup(args[0], description); err != nil {
			return err
		}
		green.Printf("✓ group %q ready in %s scope\n", args[0], ctx.Scope)
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a group (member servers survive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		if err := ctx.Store.DeleteGroup(args[0]); err != nil {
			return err
		}
		green.Printf("✓ deleted group %q (servers kept)\n", args[0])
		return nil
	},
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a group, moving all memberships",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		if err := ctx.Store.RenameGroup(args[0], args[1]); err != nil {
			return err
		}
		green.Printf("✓ renamed group %q to %q\n", args[0], args[1])
		return nil
	},
}

var groupAddCmd = &cobra.Command{
	Use:   "add <group> <server>...",
	Short: "Add servers to a group (creates the group if needed)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		group := args[0]
		for _, server := range args[1:] {
			if err := ctx.Store.AddServerToGroup(server, group); err != nil {
				return err
			}
		}
		green.Printf("✓ added %s to group %q\n", joinComma(args[1:]), group)
		return nil
	},
}

var groupRemoveCmd = &cobra.Command{
	Use:   "remove <group> <server>...",
	Short: "Remove servers from a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		group := args[0]
		for _, server := range args[1:] {
			if err := ctx.Store.RemoveServerFromGroup(server, group); err != nil {
				return err
			}
		}
		green.Printf("✓ removed %s from group %q\n", joinComma(args[1:]), group)
		return nil
	},
}

var groupLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List groups and their members",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}
		groups, err := ctx.Store.ListGroups()
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			faint.Printf("no groups in %s scope\n", ctx.Scope)
			return nil
		}
		for _, g := range groups {
			bold.Printf("@%s", g.Name)
			if g.Description != "" {
				faint.Printf("  %s", g.Description)
			}
			fmt.Println()
			if len(g.Servers) == 0 {
				faint.Println("  (empty)")
				continue
			}
			fmt.Printf("  %s\n", strings.Join(g.Servers, ", "))
		}
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().String("description", "", "Human description of the group")
	groupCmd.AddCommand(groupCreateCmd, groupDeleteCmd, groupRenameCmd, groupAddCmd, groupRemoveCmd, groupLsCmd)
	rootCmd.AddCommand(groupCmd)
}
