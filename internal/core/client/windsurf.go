package client

import "github.com/barysiuk/cpm/internal/core"

// Windsurf uses the common "mcpServers" object but spells the remote URL
// field "serverUrl".
func init() {
	Register(&BaseClient{
		name:           "windsurf",
		displayName:    "Windsurf",
		downloadURL:    "https://codeium.com/windsurf",
		configPaths:    []string{"~/.codeium/windsurf/mcp_config.json"},
		detectPaths:    []string{"~/.codeium/windsurf"},
		serversKey:     "mcpServers",
		format:         formatJSON,
		layout:         layoutMap,
		supportsRemote: true,
		translate: func(s *core.Server) (map[string]any, error) {
			if s.Kind() == core.KindStdio {
				return defaultEntry(s), nil
			}
			entry := map[string]any{"serverUrl": s.URL}
			if len(s.Headers) > 0 {
				entry["headers"] = s.Headers
			}
			return entry, nil
		},
	})
}
