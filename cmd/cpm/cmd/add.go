package cmd

import (
	"fmt"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a server definition to the active scope",
	Long: `Add an MCP server definition. Stdio servers take --command (plus optional
--args and --env); remote servers take --url (plus optional --header).
Exactly one of --command and --url is required.

Inside a project the server is also declared in server.json; elsewhere it
lands in the global store.

Examples:
  cpm add filesystem --command npx --args -y --args @modelcontextprotocol/server-filesystem
  cpm add search --url https://mcp.example.com/sse --header "Authorization=Bearer tok"
  cpm add db --command pgmcp --env PGHOST=localhost --group dev --group data`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := resolveContext(cmd)
		if err != nil {
			return err
		}

		command, _ := cmd.Flags().GetString("command")
		cmdArgs, _ := cmd.Flags().GetStringArray("args")
		envPairs, _ := cmd.Flags().GetStringArray("env")
		url, _ := cmd.Flags().GetString("url")
		serverType, _ := cmd.Flags().GetString("type")
		headerPairs, _ := cmd.Flags().GetStringArray("header")
		groups, _ := cmd.Flags().GetStringArray("group")
		version, _ := cmd.Flags().GetString("server-version")
		force, _ := cmd.Flags().GetBool("force")
		dev, _ := cmd.Flags().GetBool("dev")

		env, err := parseKeyValues(envPairs, "env")
		if err != nil {
			return err
		}
		headers, err := parseKeyValues(headerPairs, "header")
		if err != nil {
			return err
		}

		s := &core.Server{
			Name:    args[0],
			Type:    serverType,
			Command: command,
			Args:    cmdArgs,
			Env:     env,
			URL:     url,
			Headers: headers,
			Groups:  groups,
			Version: version,
		}

		if dev {
			ls := ctx.Local()
			if ls == nil {
				return fmt.Errorf("--dev requires a project (run cpm init first)")
			}
			if err := ls.AddDevServer(s, force); err != nil {
				return err
			}
		} else if err := ctx.Store.AddServer(s, force); err != nil {
			return err
		}

		green.Printf("✓ added %q to %s scope", s.Name, ctx.Scope)
		if len(groups) > 0 {
			fmt.Printf(" (groups: %s)", joinComma(groups))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	addCmd.Flags().String("command", "", "Executable for a stdio server")
	addCmd.Flags().StringArray("args", nil, "Argument for the stdio command (repeatable)")
	addCmd.Flags().StringArray("env", nil, "Environment variable KEY=VALUE (repeatable)")
	addCmd.Flags().String("url", "", "Endpoint for a remote server")
	addCmd.Flags().String("type", "", "Remote transport: http or sse")
	addCmd.Flags().StringArray("header", nil, "HTTP header KEY=VALUE for a remote server (repeatable)")
	addCmd.Flags().StringArray("group", nil, "Group to tag the server with (repeatable)")
	addCmd.Flags().String("server-version", "", "Pinned version of the server")
	addCmd.Flags().Bool("force", false, "Replace an existing definition with the same name")
	addCmd.Flags().Bool("dev", false, "Declare under devServers (project scope only)")
	rootCmd.AddCommand(addCmd)
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
