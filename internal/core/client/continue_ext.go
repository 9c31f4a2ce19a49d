package client

// Continue keeps a YAML config whose "mcpServers" section is a list of
// entries, each carrying its own name field.
func init() {
	Register(&BaseClient{
		name:           "continue",
		displayName:    "Continue",
		downloadURL:    "https://continue.dev",
		configPaths:    []string{"~/.continue/config.yaml"},
		detectPaths:    []string{"~/.continue"},
		serversKey:     "mcpServers",
		format:         formatYAML,
		layout:         layoutList,
		supportsRemote: true,
	})
}
