package client

import (
	"sort"

	"github.com/barysiuk/cpm/internal/core"
)

// Options configures a sync run.
type Options struct {
	// Clients are the targets. The command layer picks them (detected
	// clients by default, or an explicit --to list).
	Clients []Client
	// StatePath is the ownership registry for the scope being synced.
	StatePath string
	// DryRun computes the plan without writing configs or state.
	DryRun bool
	// Create allows writing a config file that does not exist yet.
	// Reconciliation never creates files; explicit adds do.
	Create bool
}

// Result is the outcome of syncing one client. A failed client never stops
// the others; callers inspect Err per result.
type Result struct {
	Client  string
	Path    string
	Added   []string
	Updated []string
	Removed []string
	// Skipped are servers this client cannot represent, with the reason.
	Skipped []string
	Err     error
}

// Changed reports whether the run touched (or would touch) this client.
func (r *Result) Changed() bool {
	return len(r.Added)+len(r.Updated)+len(r.Removed) > 0
}

// Apply reconciles each client's config with the selected servers: every
// selected server is upserted and every cpm-owned entry that is no longer
// selected is removed. Entries cpm does not own are never touched.
func Apply(servers []*core.Server, opts Options) ([]Result, error) {
	return run(servers, nil, opts, true)
}

// Add upserts the given servers without removing anything.
func Add(servers []*core.Server, opts Options) ([]Result, error) {
	return run(servers, nil, opts, false)
}

// Remove deletes the named entries from each client's config, but only
// where cpm owns them.
func Remove(names []string, opts Options) ([]Result, error) {
	return run(nil, names, opts, false)
}

func run(servers []*core.Server, removals []string, opts Options, reconcile bool) ([]Result, error) {
	state, err := LoadSyncState(opts.StatePath)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(opts.Clients))
	stateDirty := false

	for _, c := range opts.Clients {
		res := syncOne(c, servers, removals, state, opts, reconcile)
		if res.Err == nil && !opts.DryRun && res.Changed() {
			stateDirty = true
		}
		results = append(results, res)
	}

	if stateDirty {
		if err := state.Save(opts.StatePath); err != nil {
			return results, err
		}
	}
	return results, nil
}

func syncOne(c Client, servers []*core.Server, removals []string, state *SyncState, opts Options, reconcile bool) Result {
	res := Result{Client: c.Name(), Path: c.ConfigPath()}

	upserts := map[string]map[string]any{}
	for _, s := range servers {
		entry, err := c.Translate(s)
		if err != nil {
			res.Skipped = append(res.Skipped, err.Error())
			continue
		}
		upserts[s.Name] = entry
	}

	owned := map[string]bool{}
	for _, name := range state.Owned(c.Name()) {
		owned[name] = true
	}

	var toRemove []string
	if reconcile {
		// Owned entries not selected this time get cleaned up.
		for name := range owned {
			if _, selected := upserts[name]; !selected {
				toRemove = append(toRemove, name)
			}
		}
	} else {
		for _, name := range removals {
			if owned[name] {
				toRemove = append(toRemove, name)
			}
		}
	}
	sort.Strings(toRemove)

	existing, err := c.Entries()
	if err != nil {
		res.Err = err
		return res
	}
	present := map[string]bool{}
	for _, name := range existing {
		present[name] = true
	}

	for name := range upserts {
		if present[name] {
			res.Updated = append(res.Updated, name)
		} else {
			res.Added = append(res.Added, name)
		}
	}
	sort.Strings(res.Added)
	sort.Strings(res.Updated)
	for _, name := range toRemove {
		if present[name] {
			res.Removed = append(res.Removed, name)
		}
	}

	if !res.Changed() {
		return res
	}
	if opts.DryRun {
		return res
	}

	if err := c.Write(upserts, toRemove, opts.Create); err != nil {
		res.Err = err
		return res
	}

	for name := range upserts {
		owned[name] = true
	}
	for _, name := range toRemove {
		delete(owned, name)
	}
	names := make([]string, 0, len(owned))
	for name := range owned {
		names = append(names, name)
	}
	state.SetOwned(c.Name(), names)
	return res
}
