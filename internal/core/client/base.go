package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
)

// Config file formats a client can use.
const (
	formatJSON  = "json"
	formatJSONC = "jsonc"
	formatYAML  = "yaml"
	formatTOML  = "toml"
)

// Entry layouts: most clients keep a name-keyed object under serversKey;
// a few keep a list of entries each carrying a "name" field.
const (
	layoutMap  = "map"
	layoutList = "list"
)

// BaseClient provides the shared behavior for config-file clients.
// Individual clients embed this and override methods as needed.
type BaseClient struct {
	name        string
	displayName string
	downloadURL string

	// configPaths are candidate config locations (~ and $VAR allowed),
	// tried in order. The first existing one wins; the first entry is
	// the creation target.
	configPaths []string
	// detectPaths are extra files/dirs whose presence marks the client
	// as installed even before it has a config file.
	detectPaths []string

	// serversKey locates the server entries inside the document, as a
	// dotted path for nested keys (e.g. "mcp.servers").
	serversKey string
	format     string
	layout     string

	supportsRemote bool

	// translate overrides the default entry shape.
	translate func(s *core.Server) (map[string]any, error)
}

func (b *BaseClient) Name() string         { return b.name }
func (b *BaseClient) DisplayName() string  { return b.displayName }
func (b *BaseClient) DownloadURL() string  { return b.downloadURL }
func (b *BaseClient) SupportsRemote() bool { return b.supportsRemote }

func (b *BaseClient) IsInstalled() bool {
	for _, p := range b.configPaths {
		if pathExists(expandPath(p)) {
			return true
		}
	}
	for _, p := range b.detectPaths {
		if pathExists(expandPath(p)) {
			return true
		}
	}
	return false
}

func (b *BaseClient) ConfigPath() string {
	for _, p := range b.configPaths {
		if resolved := expandPath(p); pathExists(resolved) {
			return resolved
		}
	}
	return expandPath(b.configPaths[0])
}

// Translate renders the default entry shape: command/args/env for stdio
// servers, type/url/headers for remote ones.
func (b *BaseClient) Translate(s *core.Server) (map[string]any, error) {
	if s.Kind() == core.KindRemote && !b.supportsRemote {
		return nil, fmt.Errorf("%s does not support remote servers (%s is remote)", b.displayName, s.Name)
	}
	if b.translate != nil {
		return b.translate(s)
	}
	return defaultEntry(s), nil
}

func defaultEntry(s *core.Server) map[string]any {
	if s.Kind() == core.KindStdio {
		entry := map[string]any{"command": s.Command}
		if len(s.Args) > 0 {
			entry["args"] = s.Args
		}
		if len(s.Env) > 0 {
			entry["env"] = s.Env
		}
		return entry
	}
	entry := map[string]any{"url": s.URL}
	if s.Type != "" {
		entry["type"] = s.Type
	}
	if len(s.Headers) > 0 {
		entry["headers"] = s.Headers
	}
	return entry
}

func (b *BaseClient) adapter() formatAdapter {
	switch b.format {
	case formatYAML:
		return &yamlAdapter{layout: b.layout}
	case formatTOML:
		return &tomlAdapter{}
	default:
		return &jsoncAdapter{strict: b.format == formatJSON}
	}
}

// Entries lists server names present in the config file.
func (b *BaseClient) Entries() ([]string, error) {
	path := b.ConfigPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.ClientError{Client: b.name, Path: path, Kind: core.ErrClientConfigCorrupt, Err: err}
	}
	names, err := b.adapter().entries(data, b.serversKey)
	if err != nil {
		return nil, &core.ClientError{Client: b.name, Path: path, Kind: core.ErrClientConfigCorrupt, Err: err}
	}
	return names, nil
}

// Write applies upserts and removals in one read-modify-write. The document
// is patched in place: foreign entries, comments, and formatting outside
// the touched keys survive untouched.
func (b *BaseClient) Write(upserts map[string]map[string]any, removals []string, create bool) error {
	path := b.ConfigPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if !create {
			return &core.ClientError{Client: b.name, Path: path, Kind: core.ErrClientNotDetected}
		}
		data = nil
	} else if err != nil {
		return &core.ClientError{Client: b.name, Path: path, Kind: core.ErrClientConfigCorrupt, Err: err}
	}

	out, err := b.adapter().apply(data, b.serversKey, upserts, removals)
	if err != nil {
		return &core.ClientError{Client: b.name, Path: path, Kind: core.ErrClientConfigCorrupt, Err: err}
	}
	return writeFileAtomic(path, out)
}

// formatAdapter abstracts the config file syntax. entries lists the server
// names under key; apply patches upserts/removals into the document,
// preserving all unrelated content.
type formatAdapter interface {
	entries(data []byte, key string) ([]string, error)
	apply(data []byte, key string, upserts map[string]map[string]any, removals []string) ([]byte, error)
}

// --- Shared helpers ---

// expandPath expands ~ and environment variables in a path template.
func expandPath(p string) string {
	if strings.Contains(p, "$") {
		p = os.ExpandEnv(p)
	}
	if p == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		p = filepath.Join(home, p[2:])
	}
	return p
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// writeFileAtomic writes via temp file + rename, creating parent dirs.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}
