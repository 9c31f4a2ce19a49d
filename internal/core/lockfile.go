package core

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// integrityPrefix is the digest algorithm tag carried by every integrity
// string this tool writes.
const integrityPrefix = "sha512-"

var integrityPattern = regexp.MustCompile(`^sha512-[0-9a-f]{128}$`)

// Integrity computes the integrity digest of a server snapshot: sha512 over
// its canonical JSON encoding. The same definition always hashes to the
// same string, so lockfiles are diffable across machines.
func Integrity(s *Server) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Server has no unmarshalable fields; this cannot happen.
		panic(fmt.Sprintf("marshaling server %q: %v", s.Name, err))
	}
	sum := sha512.Sum512(data)
	return integrityPrefix + hex.EncodeToString(sum[:])
}

// Upsert inserts or replaces the entry for a server.
func (lf *Lockfile) Upsert(name string, e LockEntry) {
	if lf.Servers == nil {
		lf.Servers = map[string]LockEntry{}
	}
	lf.Servers[name] = e
}

// Remove drops the entry for a server. No-op when absent.
func (lf *Lockfile) Remove(name string) {
	delete(lf.Servers, name)
}

// LockfileManager owns reading, resolving and writing server-lock.json.
type LockfileManager struct {
	path string
}

// NewLockfileManager creates a manager for the lockfile at path.
func NewLockfileManager(path string) *LockfileManager {
	return &LockfileManager{path: path}
}

// Path returns the lockfile location.
func (m *LockfileManager) Path() string { return m.path }

func (m *LockfileManager) lockPath() string { return m.path + ".lock" }

// Load reads the lockfile. Returns (nil, nil) when none exists.
func (m *LockfileManager) Load() (*Lockfile, error) {
	lf := &Lockfile{}
	err := readJSON(m.path, lf)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}
	if lf.Servers == nil {
		lf.Servers = map[string]LockEntry{}
	}
	return lf, nil
}

// Save writes the lockfile atomically, stamping the generation time.
func (m *LockfileManager) Save(lf *Lockfile) error {
	lf.LockfileVersion = CurrentLockfileVersion
	lf.Generated = time.Now().UTC().Format(time.RFC3339)
	return writeJSONAtomic(m.path, lf)
}

// Resolve produces the lockfile state matching the manifest's declarations
// and persists it. Existing entries that still satisfy their declared range
// are kept as-is; everything else is resolved through the registry, falling
// back to the store's own definition for servers the registry does not know.
// Entries for servers no longer declared are pruned. The whole load-resolve-
// save cycle runs under the lockfile's advisory lock.
//
// With frozen set, no resolution happens: any declared server without a
// satisfying entry fails the whole operation with a FrozenLockfileError
// and nothing is written.
func (m *LockfileManager) Resolve(ctx context.Context, manifest *Manifest, store Store, reg Registry, frozen bool) (*Lockfile, error) {
	unlock, err := acquireLock(m.lockPath())
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := m.Load()
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &Lockfile{Servers: map[string]LockEntry{}}
	}

	next := &Lockfile{Servers: map[string]LockEntry{}}
	var missing []string

	names := manifest.DeclaredNames()
	sort.Strings(names)
	for _, name := range names {
		rng, _ := manifest.DeclaredRange(name)

		if entry, ok := existing.Servers[name]; ok && RangeSatisfies(entry.Version, rng) {
			next.Servers[name] = entry
			continue
		}
		if frozen {
			missing = append(missing, name)
			continue
		}

		entry, err := m.resolveOne(ctx, name, rng, store, reg)
		if err != nil {
			return nil, err
		}
		next.Servers[name] = *entry
	}

	if len(missing) > 0 {
		return nil, &FrozenLockfileError{Missing: missing}
	}
	if !frozen {
		if err := m.Save(next); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Update re-resolves declarations to the newest versions satisfying their
// ranges, ignoring existing pins, and persists the result. With names empty
// every declaration is refreshed; otherwise only the named ones are, and
// the rest keep their entries. Runs under the lockfile's advisory lock.
func (m *LockfileManager) Update(ctx context.Context, manifest *Manifest, store Store, reg Registry, names []string) (*Lockfile, error) {
	unlock, err := acquireLock(m.lockPath())
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := m.Load()
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &Lockfile{Servers: map[string]LockEntry{}}
	}

	refresh := map[string]bool{}
	for _, name := range names {
		if _, ok := manifest.DeclaredRange(name); !ok {
			return nil, &NotFoundError{Kind: "server", Name: name, Scope: ScopeLocal}
		}
		refresh[name] = true
	}

	next := &Lockfile{Servers: map[string]LockEntry{}}
	declared := manifest.DeclaredNames()
	sort.Strings(declared)
	for _, name := range declared {
		rng, _ := manifest.DeclaredRange(name)

		keep := len(names) > 0 && !refresh[name]
		if entry, ok := existing.Servers[name]; keep && ok {
			next.Servers[name] = entry
			continue
		}

		entry, err := m.resolveOne(ctx, name, rng, store, reg)
		if err != nil {
			return nil, err
		}
		next.Servers[name] = *entry
	}
	if err := m.Save(next); err != nil {
		return nil, err
	}
	return next, nil
}

// resolveOne resolves a single declaration. Registry resolution wins; a
// server unknown to the registry resolves against the local definition so
// hand-added servers still lock cleanly. A registry outage is fatal only
// when the local store has no definition to fall back to.
func (m *LockfileManager) resolveOne(ctx context.Context, name, rng string, store Store, reg Registry) (*LockEntry, error) {
	var regErr error
	if reg != nil {
		resolved, err := reg.ResolveVersion(ctx, name, rng)
		if err == nil {
			snapshot := resolved.Server
			if snapshot == nil {
				snapshot, _ = store.GetServer(name)
			}
			if snapshot != nil {
				snapshot = snapshot.Clone()
				snapshot.Name = name
				snapshot.Version = resolved.Version
			}
			integrity := resolved.Integrity
			if integrity == "" && snapshot != nil {
				integrity = Integrity(snapshot)
			}
			return &LockEntry{
				Version:      resolved.Version,
				Resolved:     resolved.Resolved,
				Integrity:    integrity,
				Installation: snapshot,
			}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			regErr = err
		}
	}

	s, err := store.GetServer(name)
	if err != nil {
		if regErr != nil {
			return nil, regErr
		}
		return nil, err
	}
	snapshot := s.Clone()
	version := snapshot.Version
	if version == "" {
		version = "0.0.0"
		snapshot.Version = version
	}
	return &LockEntry{
		Version:      version,
		Resolved:     "local:" + name,
		Integrity:    Integrity(snapshot),
		Installation: snapshot,
	}, nil
}

// Violation is one lockfile inconsistency found by Verify or
// VerifyIntegrity.
type Violation struct {
	Name    string
	Problem string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Name, v.Problem)
}

// Verify checks the lockfile against the manifest without touching the
// network: every declared server has an entry, every entry is declared,
// versions satisfy their ranges, and integrity strings are well-formed.
func Verify(manifest *Manifest, lf *Lockfile) []Violation {
	var violations []Violation
	if lf == nil {
		for _, name := range sortedNames(manifest) {
			violations = append(violations, Violation{Name: name, Problem: "no lockfile entry (run cpm install)"})
		}
		return violations
	}

	for _, name := range sortedNames(manifest) {
		rng, _ := manifest.DeclaredRange(name)
		entry, ok := lf.Servers[name]
		if !ok {
			violations = append(violations, Violation{Name: name, Problem: "no lockfile entry (run cpm install)"})
			continue
		}
		if !RangeSatisfies(entry.Version, rng) {
			violations = append(violations, Violation{
				Name:    name,
				Problem: fmt.Sprintf("locked version %s does not satisfy declared range %s", entry.Version, rng),
			})
		}
		if entry.Integrity != "" && !integrityPattern.MatchString(entry.Integrity) {
			violations = append(violations, Violation{
				Name:    name,
				Problem: fmt.Sprintf("malformed integrity string %q", entry.Integrity),
			})
		}
	}

	var extra []string
	for name := range lf.Servers {
		if _, ok := manifest.DeclaredRange(name); !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		violations = append(violations, Violation{Name: name, Problem: "locked but not declared in " + ManifestFileName})
	}
	return violations
}

// VerifyIntegrity re-fetches each registry-resolved entry and compares
// integrity strings byte for byte. Locally resolved entries are checked
// against a recomputed digest of their snapshot instead.
func VerifyIntegrity(ctx context.Context, lf *Lockfile, reg Registry) ([]Violation, error) {
	if lf == nil {
		return nil, nil
	}
	var violations []Violation
	names := make([]string, 0, len(lf.Servers))
	for name := range lf.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := lf.Servers[name]

		if strings.HasPrefix(entry.Resolved, "local:") {
			if entry.Installation == nil {
				violations = append(violations, Violation{Name: name, Problem: "no installation snapshot to verify"})
				continue
			}
			if got := Integrity(entry.Installation); got != entry.Integrity {
				violations = append(violations, Violation{
					Name:    name,
					Problem: (&IntegrityError{Name: name, Want: entry.Integrity, Got: got}).Error(),
				})
			}
			continue
		}

		meta, err := reg.GetServer(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				violations = append(violations, Violation{Name: name, Problem: "no longer published in registry"})
				continue
			}
			return nil, err
		}
		rec, ok := meta.Versions[entry.Version]
		if !ok {
			violations = append(violations, Violation{Name: name, Problem: fmt.Sprintf("version %s no longer published", entry.Version)})
			continue
		}
		want := rec.Integrity
		if want == "" && rec.Server != nil {
			snapshot := rec.Server.Clone()
			snapshot.Name = name
			snapshot.Version = entry.Version
			want = Integrity(snapshot)
		}
		if want != "" && want != entry.Integrity {
			violations = append(violations, Violation{
				Name:    name,
				Problem: (&IntegrityError{Name: name, Want: entry.Integrity, Got: want}).Error(),
			})
		}
	}
	return violations, nil
}

func sortedNames(m *Manifest) []string {
	names := m.DeclaredNames()
	sort.Strings(names)
	return names
}
