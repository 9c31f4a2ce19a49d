package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barysiuk/cpm/internal/core"
)

// tempClient builds a throwaway client writing into the test's directory.
func tempClient(t *testing.T, format, layout, key string) *BaseClient {
	t.Helper()
	ext := map[string]string{formatYAML: "yaml", formatTOML: "toml"}[format]
	if ext == "" {
		ext = "json"
	}
	return &BaseClient{
		name:           "testclient",
		displayName:    "Test Client",
		configPaths:    []string{filepath.Join(t.TempDir(), "config."+ext)},
		serversKey:     key,
		format:         format,
		layout:         layout,
		supportsRemote: true,
	}
}

func stdioServer(name string) *core.Server {
	return &core.Server{Name: name, Command: "npx", Args: []string{"-y", name}}
}

func syncOpts(t *testing.T, c Client, dryRun bool) Options {
	t.Helper()
	return Options{
		Clients:   []Client{c},
		StatePath: filepath.Join(t.TempDir(), SyncStateFileName),
		DryRun:    dryRun,
		Create:    true,
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestApplyCreatesConfig(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	opts := syncOpts(t, c, false)

	results, err := Apply([]*core.Server{stdioServer("fs")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil {
		t.Fatal(results[0].Err)
	}
	if len(results[0].Added) != 1 {
		t.Fatalf("added = %v, want [fs]", results[0].Added)
	}

	names, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "fs" {
		t.Errorf("entries = %v, want [fs]", names)
	}
}

func TestApplyPreservesForeignEntries(t *testing.T) {
	c := tempClient(t, formatJSONC, layoutMap, "mcpServers")
	seed := `{
	// hand-tuned, do not touch
	"mcpServers": {
		"manual": {"command": "my-own-thing", "args": ["--flag"]}
	},
	"telemetry": false
}
`
	if err := os.WriteFile(c.ConfigPath(), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := syncOpts(t, c, false)

	if _, err := Apply([]*core.Server{stdioServer("fs")}, opts); err != nil {
		t.Fatal(err)
	}

	content := mustRead(t, c.ConfigPath())
	for _, want := range []string{
		"// hand-tuned, do not touch",
		`"manual": {"command": "my-own-thing", "args": ["--flag"]}`,
		`"telemetry": false`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("foreign content %q not preserved:\n%s", want, content)
		}
	}

	// Reconcile away fs: manual must still survive, since cpm never owned it.
	if _, err := Apply(nil, opts); err != nil {
		t.Fatal(err)
	}
	names, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "manual" {
		t.Errorf("entries = %v, want only [manual]", names)
	}
}

func TestApplyReconcilesOwnedEntries(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	opts := syncOpts(t, c, false)

	if _, err := Apply([]*core.Server{stdioServer("a"), stdioServer("b")}, opts); err != nil {
		t.Fatal(err)
	}
	results, err := Apply([]*core.Server{stdioServer("a")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0].Removed) != 1 || results[0].Removed[0] != "b" {
		t.Errorf("removed = %v, want [b]", results[0].Removed)
	}

	names, _ := c.Entries()
	if len(names) != 1 || names[0] != "a" {
		t.Errorf("entries = %v, want [a]", names)
	}
}

func TestAddNeverRemoves(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	opts := syncOpts(t, c, false)

	if _, err := Apply([]*core.Server{stdioServer("a")}, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := Add([]*core.Server{stdioServer("b")}, opts); err != nil {
		t.Fatal(err)
	}
	names, _ := c.Entries()
	if len(names) != 2 {
		t.Errorf("entries = %v, want both a and b", names)
	}
}

func TestRemoveOnlyTouchesOwned(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	seed := `{"mcpServers": {"manual": {"command": "mine"}}}`
	if err := os.WriteFile(c.ConfigPath(), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := syncOpts(t, c, false)

	if _, err := Add([]*core.Server{stdioServer("fs")}, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := Remove([]string{"fs", "manual"}, opts); err != nil {
		t.Fatal(err)
	}

	names, _ := c.Entries()
	if len(names) != 1 || names[0] != "manual" {
		t.Errorf("entries = %v, want [manual] (hand-written entry must survive)", names)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	opts := syncOpts(t, c, true)

	results, err := Apply([]*core.Server{stdioServer("fs")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0].Added) != 1 {
		t.Errorf("dry run should still report the plan, got %+v", results[0])
	}
	if _, err := os.Stat(c.ConfigPath()); !os.IsNotExist(err) {
		t.Error("dry run created the config file")
	}
	if _, err := os.Stat(opts.StatePath); !os.IsNotExist(err) {
		t.Error("dry run wrote sync state")
	}
}

func TestApplyWithoutCreate(t *testing.T) {
	c := tempClient(t, formatJSON, layoutMap, "mcpServers")
	opts := syncOpts(t, c, false)
	opts.Create = false

	results, err := Apply([]*core.Server{stdioServer("fs")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(results[0].Err, core.ErrClientNotDetected) {
		t.Errorf("want ErrClientNotDetected, got %v", results[0].Err)
	}
}

func TestOneFailingClientDoesNotBlockOthers(t *testing.T) {
	bad := tempClient(t, formatJSON, layoutMap, "mcpServers")
	if err := os.WriteFile(bad.ConfigPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := tempClient(t, formatJSON, layoutMap, "mcpServers")

	opts := Options{
		Clients:   []Client{bad, good},
		StatePath: filepath.Join(t.TempDir(), SyncStateFileName),
		Create:    true,
	}
	results, err := Apply([]*core.Server{stdioServer("fs")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err == nil {
		t.Error("corrupt config did not error")
	}
	if !errors.Is(results[0].Err, core.ErrClientConfigCorrupt) {
		t.Errorf("want ErrClientConfigCorrupt, got %v", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("healthy client failed: %v", results[1].Err)
	}
	names, _ := good.Entries()
	if len(names) != 1 {
		t.Errorf("healthy client not synced: %v", names)
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SyncStateFileName)
	state, err := LoadSyncState(path)
	if err != nil {
		t.Fatal(err)
	}
	state.SetOwned("cursor", []string{"b", "a"})
	if err := state.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSyncState(path)
	if err != nil {
		t.Fatal(err)
	}
	owned := loaded.Owned("cursor")
	if len(owned) != 2 || owned[0] != "a" || owned[1] != "b" {
		t.Errorf("owned = %v, want sorted [a b]", owned)
	}
}
