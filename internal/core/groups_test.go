package core

import (
	"errors"
	"testing"
)

func TestResolveSingleServer(t *testing.T) {
	store := testStore(t)
	if err := store.AddServer(stdioServer("fs"), false); err != nil {
		t.Fatal(err)
	}

	servers, err := Resolve(store, "fs")
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 1 || servers[0].Name != "fs" {
		t.Fatalf("got %v, want [fs]", servers)
	}

	if _, err := Resolve(store, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestResolveGroup(t *testing.T) {
	store := testStore(t)
	for _, name := range []string{"fs", "db"} {
		if err := store.AddServer(stdioServer(name), false); err != nil {
			t.Fatal(err)
		}
		if err := store.AddServerToGroup(name, "dev"); err != nil {
			t.Fatal(err)
		}
	}

	servers, err := Resolve(store, "@dev")
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
}

func TestResolveEmptyGroup(t *testing.T) {
	store := testStore(t)
	if err := store.UpsertGroup("empty", ""); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(store, "@empty")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || !nf.EmptyGroup {
		t.Errorf("want EmptyGroup flag set, got %#v", err)
	}
}

func TestResolveAllDedupesOverlap(t *testing.T) {
	store := testStore(t)
	for _, name := range []string{"fs", "db", "search"} {
		if err := store.AddServer(stdioServer(name), false); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"fs", "db"} {
		if err := store.AddServerToGroup(name, "dev"); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"db", "search"} {
		if err := store.AddServerToGroup(name, "data"); err != nil {
			t.Fatal(err)
		}
	}

	servers, err := ResolveAll(store, []string{"@dev", "@data", "fs"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"db", "fs", "search"}
	if len(servers) != len(want) {
		t.Fatalf("got %d servers, want %d", len(servers), len(want))
	}
	for i, s := range servers {
		if s.Name != want[i] {
			t.Errorf("servers[%d] = %q, want %q", i, s.Name, want[i])
		}
	}
}

func TestResolveAllFailsFast(t *testing.T) {
	store := testStore(t)
	if err := store.AddServer(stdioServer("fs"), false); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveAll(store, []string{"fs", "@ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
