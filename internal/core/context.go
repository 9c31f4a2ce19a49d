package core

import (
	"fmt"
	"os"
)

// Context is the resolved target of a command invocation: which scope it
// operates on and the store for that scope.
type Context struct {
	Scope Scope
	Store Store
	// ProjectDir is set when Scope is ScopeLocal.
	ProjectDir string
}

// ContextOptions controls scope resolution. ForceLocal and ForceGlobal map
// to the --local and --global flags; at most one may be set.
type ContextOptions struct {
	ForceLocal  bool
	ForceGlobal bool
	// WorkDir is the directory to start the manifest search from.
	// Defaults to the current working directory.
	WorkDir string
	// GlobalDir overrides the global config directory. Used by tests.
	GlobalDir string
}

// ResolveContext decides which scope an invocation targets. Without flags it
// prefers the local scope when an ancestor directory holds a manifest and
// falls back to global otherwise. --local with no manifest in reach is a
// ScopeError rather than a silent fallback.
func ResolveContext(opts ContextOptions) (*Context, error) {
	if opts.ForceLocal && opts.ForceGlobal {
		return nil, fmt.Errorf("--local and --global are mutually exclusive")
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		workDir = wd
	}

	newGlobal := func() *Context {
		var store *GlobalStore
		if opts.GlobalDir != "" {
			store = NewGlobalStoreAt(opts.GlobalDir)
		} else {
			store = NewGlobalStore()
		}
		return &Context{Scope: ScopeGlobal, Store: store}
	}

	if opts.ForceGlobal {
		return newGlobal(), nil
	}

	root := FindProjectRoot(workDir)
	if root == "" {
		if opts.ForceLocal {
			return nil, &ScopeError{
				Scope:  ScopeLocal,
				Dir:    workDir,
				Reason: "no " + ManifestFileName + " in this directory or any ancestor",
			}
		}
		return newGlobal(), nil
	}

	return &Context{
		Scope:      ScopeLocal,
		Store:      NewLocalStore(root),
		ProjectDir: root,
	}, nil
}

// Local returns the context's store as a *LocalStore, or nil when the
// context is global. Callers needing manifest or lockfile access use this.
func (c *Context) Local() *LocalStore {
	if ls, ok := c.Store.(*LocalStore); ok {
		return ls
	}
	return nil
}
