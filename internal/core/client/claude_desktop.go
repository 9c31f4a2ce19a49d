package client

import "runtime"

// Claude Desktop keeps a strict-JSON config with an "mcpServers" object.
// It only launches stdio servers; remote definitions are rejected at
// translation time.
func init() {
	paths := []string{"~/.config/Claude/claude_desktop_config.json"}
	switch runtime.GOOS {
	case "darwin":
		paths = []string{"~/Library/Application Support/Claude/claude_desktop_config.json"}
	case "windows":
		paths = []string{"$APPDATA/Claude/claude_desktop_config.json"}
	}

	Register(&BaseClient{
		name:        "claude-desktop",
		displayName: "Claude Desktop",
		downloadURL: "https://claude.ai/download",
		configPaths: paths,
		serversKey:  "mcpServers",
		format:      formatJSON,
		layout:      layoutMap,
	})
}
