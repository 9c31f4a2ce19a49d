package client

// Codex reads ~/.codex/config.toml with an [mcp_servers.<name>] table per
// server. Stdio only.
func init() {
	Register(&BaseClient{
		name:        "codex",
		displayName: "Codex",
		downloadURL: "https://github.com/openai/codex",
		configPaths: []string{"~/.codex/config.toml"},
		detectPaths: []string{"~/.codex"},
		serversKey:  "mcp_servers",
		format:      formatTOML,
		layout:      layoutMap,
	})
}
