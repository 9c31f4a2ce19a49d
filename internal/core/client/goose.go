package client

import "github.com/barysiuk/cpm/internal/core"

// Goose keeps extensions in a YAML map with its own vocabulary: "cmd" and
// "envs" instead of command/env, an enabled flag, and "sse" remotes with a
// "uri" field.
func init() {
	Register(&BaseClient{
		name:           "goose",
		displayName:    "Goose",
		downloadURL:    "https://block.github.io/goose/",
		configPaths:    []string{"~/.config/goose/config.yaml"},
		serversKey:     "extensions",
		format:         formatYAML,
		layout:         layoutMap,
		supportsRemote: true,
		translate: func(s *core.Server) (map[string]any, error) {
			if s.Kind() == core.KindStdio {
				entry := map[string]any{
					"name":    s.Name,
					"type":    "stdio",
					"enabled": true,
					"cmd":     s.Command,
				}
				if len(s.Args) > 0 {
					entry["args"] = s.Args
				}
				if len(s.Env) > 0 {
					entry["envs"] = s.Env
				}
				return entry, nil
			}
			return map[string]any{
				"name":    s.Name,
				"type":    "sse",
				"enabled": true,
				"uri":     s.URL,
			}, nil
		},
	})
}
