package client

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestYAMLMapLayout(t *testing.T) {
	c := tempClient(t, formatYAML, layoutMap, "extensions")
	seed := `# goose config
GOOSE_PROVIDER: anthropic
extensions:
  homebrew:
    enabled: true
    type: stdio
    cmd: brew-mcp
`
	if err := os.WriteFile(c.ConfigPath(), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	err := c.Write(map[string]map[string]any{
		"fs": {"type": "stdio", "cmd": "npx", "enabled": true},
	}, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	content := mustRead(t, c.ConfigPath())
	if !strings.Contains(content, "# goose config") {
		t.Errorf("comment lost:\n%s", content)
	}
	if !strings.Contains(content, "GOOSE_PROVIDER: anthropic") {
		t.Errorf("foreign key lost:\n%s", content)
	}
	if !strings.Contains(content, "homebrew:") {
		t.Errorf("foreign entry lost:\n%s", content)
	}

	names, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "fs" || names[1] != "homebrew" {
		t.Errorf("entries = %v, want [fs homebrew]", names)
	}

	if err := c.Write(nil, []string{"fs"}, false); err != nil {
		t.Fatal(err)
	}
	names, _ = c.Entries()
	if len(names) != 1 || names[0] != "homebrew" {
		t.Errorf("after remove, entries = %v", names)
	}
}

func TestYAMLListLayout(t *testing.T) {
	c := tempClient(t, formatYAML, layoutList, "mcpServers")
	seed := `models:
  - provider: openai
mcpServers:
  - name: manual
    command: my-thing
`
	if err := os.WriteFile(c.ConfigPath(), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	err := c.Write(map[string]map[string]any{
		"fs": {"command": "npx", "args": []string{"-y", "fs"}},
	}, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	names, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "fs" || names[1] != "manual" {
		t.Errorf("entries = %v, want [fs manual]", names)
	}

	// Replacing an entry must not duplicate it.
	err = c.Write(map[string]map[string]any{
		"fs": {"command": "bunx"},
	}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		MCPServers []map[string]any `yaml:"mcpServers"`
	}
	if err := yaml.Unmarshal([]byte(mustRead(t, c.ConfigPath())), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.MCPServers) != 2 {
		t.Errorf("got %d list entries, want 2 (no duplicates)", len(doc.MCPServers))
	}

	if err := c.Write(nil, []string{"fs"}, false); err != nil {
		t.Fatal(err)
	}
	names, _ = c.Entries()
	if len(names) != 1 || names[0] != "manual" {
		t.Errorf("after remove, entries = %v", names)
	}
}

func TestYAMLCreatesFreshFile(t *testing.T) {
	c := tempClient(t, formatYAML, layoutMap, "extensions")
	err := c.Write(map[string]map[string]any{
		"fs": {"cmd": "npx", "enabled": true},
	}, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	names, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "fs" {
		t.Errorf("entries = %v", names)
	}
}
