package client

func init() {
	Register(&BaseClient{
		name:           "cursor",
		displayName:    "Cursor",
		downloadURL:    "https://cursor.com",
		configPaths:    []string{"~/.cursor/mcp.json"},
		detectPaths:    []string{"~/.cursor"},
		serversKey:     "mcpServers",
		format:         formatJSONC,
		layout:         layoutMap,
		supportsRemote: true,
	})
}
