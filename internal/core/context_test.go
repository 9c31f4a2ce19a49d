package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveContextGlobalDefault(t *testing.T) {
	ctx, err := ResolveContext(ContextOptions{WorkDir: t.TempDir(), GlobalDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Scope != ScopeGlobal {
		t.Errorf("scope = %s, want global", ctx.Scope)
	}
	if ctx.Local() != nil {
		t.Error("global context reports a local store")
	}
}

func TestResolveContextFindsProject(t *testing.T) {
	root := t.TempDir()
	if _, err := InitProject(root, "p"); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "sub", "dir")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, err := ResolveContext(ContextOptions{WorkDir: nested})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Scope != ScopeLocal {
		t.Fatalf("scope = %s, want local", ctx.Scope)
	}
	if ctx.ProjectDir != root {
		t.Errorf("project dir = %q, want %q", ctx.ProjectDir, root)
	}
	if ctx.Local() == nil {
		t.Error("local context has no local store")
	}
}

func TestResolveContextForceGlobalInsideProject(t *testing.T) {
	root := t.TempDir()
	if _, err := InitProject(root, "p"); err != nil {
		t.Fatal(err)
	}
	ctx, err := ResolveContext(ContextOptions{WorkDir: root, ForceGlobal: true, GlobalDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Scope != ScopeGlobal {
		t.Errorf("scope = %s, want global", ctx.Scope)
	}
}

func TestResolveContextForceLocalWithoutManifest(t *testing.T) {
	_, err := ResolveContext(ContextOptions{WorkDir: t.TempDir(), ForceLocal: true})
	if !errors.Is(err, ErrScopeUnavailable) {
		t.Fatalf("want ErrScopeUnavailable, got %v", err)
	}
}

func TestResolveContextConflictingFlags(t *testing.T) {
	_, err := ResolveContext(ContextOptions{ForceLocal: true, ForceGlobal: true})
	if err == nil {
		t.Fatal("want error for --local with --global")
	}
}
