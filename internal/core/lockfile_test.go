package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeRegistry serves canned metadata without a network.
type fakeRegistry struct {
	servers map[string]*ServerMetadata
}

func (f *fakeRegistry) GetServer(_ context.Context, name string) (*ServerMetadata, error) {
	meta, ok := f.servers[name]
	if !ok {
		return nil, &NotFoundError{Kind: "server", Name: name, Scope: "registry"}
	}
	return meta, nil
}

func (f *fakeRegistry) ResolveVersion(ctx context.Context, name, rng string) (*ResolvedVersion, error) {
	meta, err := f.GetServer(ctx, name)
	if err != nil {
		return nil, err
	}
	return ResolveAgainstMetadata(meta, rng)
}

func (f *fakeRegistry) Search(context.Context, string) ([]*ServerMetadata, error) {
	return nil, nil
}

func metadataFor(name string, versions ...string) *ServerMetadata {
	meta := &ServerMetadata{
		Name:     name,
		DistTags: map[string]string{"latest": versions[len(versions)-1]},
		Versions: map[string]*VersionRecord{},
	}
	for _, v := range versions {
		meta.Versions[v] = &VersionRecord{
			Version:  v,
			Resolved: "https://registry.test/" + name + "/" + v,
			Server:   &Server{Name: name, Command: "npx", Args: []string{"-y", name}},
		}
	}
	return meta
}

func lockedProject(t *testing.T) (*LocalStore, *LockfileManager) {
	t.Helper()
	ls := testProject(t)
	return ls, NewLockfileManager(ls.LockfilePath())
}

func TestIntegrityDeterministic(t *testing.T) {
	s := stdioServer("fs")
	s.Env = map[string]string{"B": "2", "A": "1"}

	first := Integrity(s)
	second := Integrity(s.Clone())
	if first != second {
		t.Errorf("integrity not deterministic: %s vs %s", first, second)
	}
	if !strings.HasPrefix(first, "sha512-") {
		t.Errorf("integrity %q missing algorithm prefix", first)
	}
	if !integrityPattern.MatchString(first) {
		t.Errorf("integrity %q malformed", first)
	}

	changed := s.Clone()
	changed.Args = append(changed.Args, "--extra")
	if Integrity(changed) == first {
		t.Error("different definitions hash identically")
	}
}

func TestResolveAgainstRegistry(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("fs")
	s.Version = "1.0.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{servers: map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0", "1.4.2", "2.0.0"),
	}}

	m, _ := ls.LoadManifest()
	lf, err := lm.Resolve(context.Background(), m, ls, reg, false)
	if err != nil {
		t.Fatal(err)
	}

	entry, ok := lf.Servers["fs"]
	if !ok {
		t.Fatal("no entry for fs")
	}
	// Declared ^1.0.0: newest satisfying is 1.4.2, not 2.0.0.
	if entry.Version != "1.4.2" {
		t.Errorf("version = %q, want 1.4.2", entry.Version)
	}
	if entry.Integrity == "" || entry.Installation == nil {
		t.Error("entry missing integrity or installation snapshot")
	}
}

func TestResolveKeepsSatisfyingEntries(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("fs")
	s.Version = "1.0.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}
	reg := &fakeRegistry{servers: map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0", "1.4.2"),
	}}
	m, _ := ls.LoadManifest()

	lf, err := lm.Resolve(context.Background(), m, ls, reg, false)
	if err != nil {
		t.Fatal(err)
	}
	pinned := lf.Servers["fs"].Version

	// A newer version appears; plain resolve keeps the existing pin.
	reg.servers["fs"] = metadataFor("fs", "1.0.0", "1.4.2", "1.9.0")
	again, err := lm.Resolve(context.Background(), m, ls, reg, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Servers["fs"].Version; got != pinned {
		t.Errorf("resolve moved a satisfying pin: %q -> %q", pinned, got)
	}

	// Update discards the pin.
	updated, err := lm.Update(context.Background(), m, ls, reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Servers["fs"].Version; got != "1.9.0" {
		t.Errorf("update version = %q, want 1.9.0", got)
	}
}

func TestResolveFallsBackToLocalDefinition(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("homegrown")
	s.Version = "0.3.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{servers: map[string]*ServerMetadata{}}
	m, _ := ls.LoadManifest()
	lf, err := lm.Resolve(context.Background(), m, ls, reg, false)
	if err != nil {
		t.Fatal(err)
	}
	entry := lf.Servers["homegrown"]
	if entry.Version != "0.3.0" {
		t.Errorf("version = %q, want 0.3.0", entry.Version)
	}
	if !strings.HasPrefix(entry.Resolved, "local:") {
		t.Errorf("resolved = %q, want local: prefix", entry.Resolved)
	}
	if entry.Integrity != Integrity(entry.Installation) {
		t.Error("integrity does not match snapshot digest")
	}
}

func TestResolvePersistsLockfile(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("fs")
	s.Version = "1.0.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}
	reg := &fakeRegistry{servers: map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0"),
	}}

	m, _ := ls.LoadManifest()
	if _, err := lm.Resolve(context.Background(), m, ls, reg, false); err != nil {
		t.Fatal(err)
	}

	loaded, err := lm.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("resolve did not write the lockfile")
	}
	if _, ok := loaded.Servers["fs"]; !ok {
		t.Error("persisted lockfile missing entry for fs")
	}
}

func TestConcurrentResolvesKeepAllEntries(t *testing.T) {
	ls, _ := lockedProject(t)
	for _, name := range []string{"fs", "db"} {
		s := stdioServer(name)
		s.Version = "1.0.0"
		if err := ls.AddServer(s, false); err != nil {
			t.Fatal(err)
		}
	}
	reg := &fakeRegistry{servers: map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0"),
		"db": metadataFor("db", "1.0.0"),
	}}
	m, _ := ls.LoadManifest()

	// Two managers, as two cpm processes would have.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		lm := NewLockfileManager(ls.LockfilePath())
		wg.Add(1)
		go func(i int, lm *LockfileManager) {
			defer wg.Done()
			_, errs[i] = lm.Resolve(context.Background(), m, ls, reg, false)
		}(i, lm)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	loaded, err := NewLockfileManager(ls.LockfilePath()).Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || len(loaded.Servers) != 2 {
		t.Fatalf("lockfile lost entries under concurrent resolves: %+v", loaded)
	}
}

func TestFrozenLockfileNoWrites(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("fs")
	s.Version = "1.0.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}

	m, _ := ls.LoadManifest()
	_, err := lm.Resolve(context.Background(), m, ls, &fakeRegistry{}, true)
	if !errors.Is(err, ErrFrozenLockfile) {
		t.Fatalf("want ErrFrozenLockfile, got %v", err)
	}
	var fe *FrozenLockfileError
	if !errors.As(err, &fe) || len(fe.Missing) != 1 || fe.Missing[0] != "fs" {
		t.Errorf("missing = %#v, want [fs]", err)
	}

	if _, statErr := os.Stat(ls.LockfilePath()); !os.IsNotExist(statErr) {
		t.Error("frozen resolve must not create the lockfile")
	}
}

func TestResolvePrunesUndeclared(t *testing.T) {
	ls, lm := lockedProject(t)
	s := stdioServer("fs")
	s.Version = "1.0.0"
	if err := ls.AddServer(s, false); err != nil {
		t.Fatal(err)
	}
	reg := &fakeRegistry{servers: map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0"),
	}}
	m, _ := ls.LoadManifest()
	if _, err := lm.Resolve(context.Background(), m, ls, reg, false); err != nil {
		t.Fatal(err)
	}

	if err := ls.RemoveServer("fs"); err != nil {
		t.Fatal(err)
	}
	m, _ = ls.LoadManifest()
	lf, err := lm.Resolve(context.Background(), m, ls, reg, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := lf.Servers["fs"]; ok {
		t.Error("undeclared server survived in lockfile")
	}
}

func TestVerify(t *testing.T) {
	m := NewManifest("p", "1.0.0")
	m.Servers["fs"] = "^1.0.0"

	// No lockfile at all.
	violations := Verify(m, nil)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}

	lf := &Lockfile{Servers: map[string]LockEntry{
		"fs":    {Version: "2.0.0", Integrity: "sha512-zz"},
		"extra": {Version: "1.0.0"},
	}}
	violations = Verify(m, lf)

	problems := make([]string, 0, len(violations))
	for _, v := range violations {
		problems = append(problems, v.String())
	}
	joined := strings.Join(problems, "\n")
	if !strings.Contains(joined, "does not satisfy") {
		t.Errorf("range violation not reported:\n%s", joined)
	}
	if !strings.Contains(joined, "malformed integrity") {
		t.Errorf("integrity format violation not reported:\n%s", joined)
	}
	if !strings.Contains(joined, "extra") {
		t.Errorf("undeclared entry not reported:\n%s", joined)
	}
}

func TestVerifyIntegrityLocalEntries(t *testing.T) {
	snapshot := stdioServer("fs")
	snapshot.Version = "1.0.0"
	lf := &Lockfile{Servers: map[string]LockEntry{
		"fs": {
			Version:      "1.0.0",
			Resolved:     "local:fs",
			Integrity:    Integrity(snapshot),
			Installation: snapshot,
		},
	}}

	violations, err := VerifyIntegrity(context.Background(), lf, &fakeRegistry{})
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Errorf("clean entry flagged: %v", violations)
	}

	// Tamper with the snapshot.
	lf.Servers["fs"].Installation.Args = []string{"evil"}
	violations, err = VerifyIntegrity(context.Background(), lf, &fakeRegistry{})
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 1 {
		t.Fatalf("tampered entry not flagged: %v", violations)
	}
}

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lm := NewLockfileManager(filepath.Join(dir, LockfileFileName))

	if lf, err := lm.Load(); err != nil || lf != nil {
		t.Fatalf("missing lockfile: got (%v, %v), want (nil, nil)", lf, err)
	}

	snapshot := stdioServer("fs")
	lf := &Lockfile{Servers: map[string]LockEntry{}}
	lf.Upsert("fs", LockEntry{
		Version:      "1.0.0",
		Resolved:     "local:fs",
		Integrity:    Integrity(snapshot),
		Installation: snapshot,
	})
	if err := lm.Save(lf); err != nil {
		t.Fatal(err)
	}

	loaded, err := lm.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LockfileVersion != CurrentLockfileVersion {
		t.Errorf("lockfileVersion = %d, want %d", loaded.LockfileVersion, CurrentLockfileVersion)
	}
	if loaded.Generated == "" {
		t.Error("generated timestamp missing")
	}
	entry := loaded.Servers["fs"]
	if entry.Version != "1.0.0" || entry.Installation == nil {
		t.Errorf("entry did not round-trip: %+v", entry)
	}
}
