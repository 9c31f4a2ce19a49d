package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func registryServer(t *testing.T, servers map[string]*ServerMetadata) *HTTPRegistry {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, meta := range servers {
			if r.URL.Path == "/servers/"+name {
				_ = json.NewEncoder(w).Encode(meta)
				return
			}
		}
		if r.URL.Path == "/search" {
			var result struct {
				Servers []*ServerMetadata `json:"servers"`
			}
			for _, meta := range servers {
				result.Servers = append(result.Servers, meta)
			}
			_ = json.NewEncoder(w).Encode(result)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)
	return NewRegistry(ts.URL)
}

func TestRegistryGetServer(t *testing.T) {
	reg := registryServer(t, map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0", "2.0.0"),
	})

	meta, err := reg.GetServer(context.Background(), "fs")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Latest() != "2.0.0" {
		t.Errorf("latest = %q, want 2.0.0", meta.Latest())
	}

	_, err = reg.GetServer(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestRegistryResolveVersion(t *testing.T) {
	reg := registryServer(t, map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0", "1.4.2", "2.0.0"),
	})

	for _, tc := range []struct {
		rng  string
		want string
	}{
		{"", "2.0.0"},
		{"latest", "2.0.0"},
		{"^1.0.0", "1.4.2"},
		{"1.0.0", "1.0.0"},
		{">=1.2.0 <2.0.0", "1.4.2"},
	} {
		resolved, err := reg.ResolveVersion(context.Background(), "fs", tc.rng)
		if err != nil {
			t.Fatalf("range %q: %v", tc.rng, err)
		}
		if resolved.Version != tc.want {
			t.Errorf("range %q resolved %q, want %q", tc.rng, resolved.Version, tc.want)
		}
	}

	if _, err := reg.ResolveVersion(context.Background(), "fs", "^9.0.0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unsatisfiable range: want ErrNotFound, got %v", err)
	}
}

func TestRegistryUnavailable(t *testing.T) {
	reg := NewRegistry("http://127.0.0.1:1")
	_, err := reg.GetServer(context.Background(), "fs")
	if !errors.Is(err, ErrRegistryUnavailable) {
		t.Fatalf("want ErrRegistryUnavailable, got %v", err)
	}
}

func TestRegistrySearch(t *testing.T) {
	reg := registryServer(t, map[string]*ServerMetadata{
		"fs": metadataFor("fs", "1.0.0"),
	})
	results, err := reg.Search(context.Background(), "fs")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "fs" {
		t.Errorf("got %v, want [fs]", results)
	}
}

func TestRangeSatisfies(t *testing.T) {
	cases := []struct {
		version, rng string
		want         bool
	}{
		{"1.4.2", "^1.0.0", true},
		{"2.0.0", "^1.0.0", false},
		{"1.4.2", "latest", true},
		{"1.4.2", "", true},
		{"", "latest", false},
		{"1.4.2", "1.4.2", true},
		{"1.4.2", ">=1.0.0 <1.4.0", false},
		{"not-semver", "also-not", false},
		{"weird", "weird", true},
	}
	for _, tc := range cases {
		if got := RangeSatisfies(tc.version, tc.rng); got != tc.want {
			t.Errorf("RangeSatisfies(%q, %q) = %v, want %v", tc.version, tc.rng, got, tc.want)
		}
	}
}
