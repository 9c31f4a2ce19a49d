package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/barysiuk/cpm/internal/core/client"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)
)

// resolveContext builds the scope context from the persistent flags.
func resolveContext(cmd *cobra.Command) (*core.Context, error) {
	forceLocal, _ := cmd.Flags().GetBool("local")
	forceGlobal, _ := cmd.Flags().GetBool("global")
	return core.ResolveContext(core.ContextOptions{
		ForceLocal:  forceLocal,
		ForceGlobal: forceGlobal,
		GlobalDir:   os.Getenv("CPM_CONFIG_DIR"),
	})
}

// statePath returns the sync ownership registry location for a context.
// Global state sits next to the global store; local state under .cpm/.
func statePath(ctx *core.Context) string {
	if ls := ctx.Local(); ls != nil {
		return filepath.Join(ls.StateDir(), client.SyncStateFileName)
	}
	return filepath.Join(ctx.Store.Dir(), client.SyncStateFileName)
}

// loadSettings reads tool settings, honoring a test override for the
// config directory.
func loadSettings() (*core.Settings, error) {
	return core.LoadSettings(os.Getenv("CPM_CONFIG_DIR"))
}

// newRegistry builds the registry client from settings.
func newRegistry() (core.Registry, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return core.NewRegistry(settings.Registry), nil
}

// resolveTargetClients parses the --to flag into clients, defaulting to the
// configured default set, then to all detected clients.
func resolveTargetClients(cmd *cobra.Command) ([]client.Client, error) {
	flag, _ := cmd.Flags().GetString("to")
	if flag != "" {
		names := strings.Split(flag, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		return client.ByNames(names)
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if len(settings.DefaultClients) > 0 {
		return client.ByNames(settings.DefaultClients)
	}

	detected := client.Detect()
	if len(detected) == 0 {
		return nil, fmt.Errorf("no MCP clients detected; use --to to name one of: %s",
			strings.Join(client.Names(client.All()), ", "))
	}
	return detected, nil
}

// addToFlag adds the --to client selector to a command.
func addToFlag(cmd *cobra.Command) {
	cmd.Flags().String("to", "", "Comma-separated client names (e.g. cursor,claude-desktop)")
}

// printSyncResults renders per-client sync outcomes and returns an error
// when any client failed.
func printSyncResults(results []client.Result, dryRun bool) error {
	failures := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			red.Printf("  ✗ %-16s %v\n", r.Client, r.Err)
		case !r.Changed():
			faint.Printf("  = %-16s up to date\n", r.Client)
		default:
			verb := "synced"
			if dryRun {
				verb = "would sync"
			}
			green.Printf("  ✓ %-16s %s", r.Client, verb)
			var parts []string
			if n := len(r.Added); n > 0 {
				parts = append(parts, fmt.Sprintf("%d added", n))
			}
			if n := len(r.Updated); n > 0 {
				parts = append(parts, fmt.Sprintf("%d updated", n))
			}
			if n := len(r.Removed); n > 0 {
				parts = append(parts, fmt.Sprintf("%d removed", n))
			}
			fmt.Printf(" (%s) -> %s\n", strings.Join(parts, ", "), r.Path)
		}
		for _, skip := range r.Skipped {
			yellow.Printf("    ! skipped: %s\n", skip)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d clients failed", failures, len(results))
	}
	return nil
}

// parseKeyValues parses repeated KEY=VALUE flags.
func parseKeyValues(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --%s %q (want KEY=VALUE)", flagName, pair)
		}
		m[k] = v
	}
	return m, nil
}
