package client

import "runtime"

// Cline lives inside VS Code's global storage; its MCP settings file is a
// plain-JSON document with the common "mcpServers" object.
func init() {
	const settingsRel = "Code/User/globalStorage/saoudrizwan.claude-dev/settings/cline_mcp_settings.json"

	paths := []string{"~/.config/" + settingsRel}
	switch runtime.GOOS {
	case "darwin":
		paths = []string{"~/Library/Application Support/" + settingsRel}
	case "windows":
		paths = []string{"$APPDATA/" + settingsRel}
	}

	Register(&BaseClient{
		name:           "cline",
		displayName:    "Cline",
		downloadURL:    "https://cline.bot",
		configPaths:    paths,
		serversKey:     "mcpServers",
		format:         formatJSON,
		layout:         layoutMap,
		supportsRemote: true,
	})
}
