package client

import (
	"runtime"

	"github.com/barysiuk/cpm/internal/core"
)

// VS Code stores MCP servers inside user settings.json (JSONC with comments
// in the wild) under the nested "mcp.servers" key. Stdio entries carry an
// explicit type field.
func init() {
	paths := []string{"~/.config/Code/User/settings.json"}
	switch runtime.GOOS {
	case "darwin":
		paths = []string{"~/Library/Application Support/Code/User/settings.json"}
	case "windows":
		paths = []string{"$APPDATA/Code/User/settings.json"}
	}

	Register(&BaseClient{
		name:           "vscode",
		displayName:    "VS Code",
		downloadURL:    "https://code.visualstudio.com",
		configPaths:    paths,
		serversKey:     "mcp.servers",
		format:         formatJSONC,
		layout:         layoutMap,
		supportsRemote: true,
		translate: func(s *core.Server) (map[string]any, error) {
			entry := defaultEntry(s)
			if s.Kind() == core.KindStdio {
				entry["type"] = "stdio"
			} else if s.Type == "" {
				entry["type"] = "http"
			}
			return entry, nil
		},
	})
}
