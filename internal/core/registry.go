package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
)

// DefaultRegistryURL is the public server registry. Override with the
// CPM_REGISTRY_URL environment variable or the registry config key.
const DefaultRegistryURL = "https://registry.mcpservers.dev"

const registryTimeout = 30 * time.Second

// ServerMetadata is a registry record for one published server: its
// dist-tags and every published version.
type ServerMetadata struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	DistTags    map[string]string         `json:"dist-tags"`
	Versions    map[string]*VersionRecord `json:"versions"`
}

// VersionRecord is one published version of a server.
type VersionRecord struct {
	Version   string  `json:"version"`
	Resolved  string  `json:"resolved"`
	Integrity string  `json:"integrity,omitempty"`
	Server    *Server `json:"server,omitempty"`
}

// Latest returns the version the "latest" dist-tag points at.
func (m *ServerMetadata) Latest() string {
	return m.DistTags["latest"]
}

// ResolvedVersion is the outcome of resolving a version range.
type ResolvedVersion struct {
	Version   string
	Resolved  string
	Integrity string
	Server    *Server
}

// Registry resolves server names and version ranges to exact published
// versions.
type Registry interface {
	GetServer(ctx context.Context, name string) (*ServerMetadata, error)
	ResolveVersion(ctx context.Context, name, rng string) (*ResolvedVersion, error)
	Search(ctx context.Context, query string) ([]*ServerMetadata, error)
}

// RangeSatisfies reports whether an exact version satisfies a declared
// range. "latest", "*" and the empty range accept any version; otherwise
// the range is a semver constraint ("^1.2.0", ">=2.0.0 <3.0.0", "1.4.2").
// Unparseable inputs fall back to exact string equality.
func RangeSatisfies(version, rng string) bool {
	switch rng {
	case "", "latest", "*":
		return version != ""
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return version == rng
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return version == rng
	}
	return c.Check(v)
}

// HTTPRegistry talks to an npm-style registry over HTTP.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
}

// NewRegistry returns the registry configured for this invocation:
// CPM_REGISTRY_URL if set, else the supplied configured URL, else the
// default.
func NewRegistry(configuredURL string) *HTTPRegistry {
	base := os.Getenv(globalRegistryEnvVar)
	if base == "" {
		base = configuredURL
	}
	if base == "" {
		base = DefaultRegistryURL
	}
	return &HTTPRegistry{
		baseURL: base,
		client:  &http.Client{Timeout: registryTimeout},
	}
}

func (r *HTTPRegistry) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return &RegistryError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &RegistryError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errRegistryNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &RegistryError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RegistryError{Op: op, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RegistryError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// errRegistryNotFound marks a 404 inside get; GetServer translates it into
// a NotFoundError carrying the server name.
var errRegistryNotFound = fmt.Errorf("registry: not found")

// GetServer fetches the full metadata record for a server.
func (r *HTTPRegistry) GetServer(ctx context.Context, name string) (*ServerMetadata, error) {
	meta := &ServerMetadata{}
	if err := r.get(ctx, "get "+name, "/servers/"+url.PathEscape(name), meta); err != nil {
		if err == errRegistryNotFound {
			return nil, &NotFoundError{Kind: "server", Name: name, Scope: "registry"}
		}
		return nil, err
	}
	return meta, nil
}

// ResolveVersion picks the highest published version satisfying rng.
// "latest" and the empty range follow the latest dist-tag.
func (r *HTTPRegistry) ResolveVersion(ctx context.Context, name, rng string) (*ResolvedVersion, error) {
	meta, err := r.GetServer(ctx, name)
	if err != nil {
		return nil, err
	}
	return ResolveAgainstMetadata(meta, rng)
}

// ResolveAgainstMetadata runs range resolution over an already-fetched
// metadata record. Split out so callers holding metadata avoid a second
// round trip.
func ResolveAgainstMetadata(meta *ServerMetadata, rng string) (*ResolvedVersion, error) {
	pick := func(version string) (*ResolvedVersion, error) {
		rec, ok := meta.Versions[version]
		if !ok {
			return nil, &RegistryError{
				Op:  "resolve " + meta.Name,
				Err: fmt.Errorf("version %s is tagged but not published", version),
			}
		}
		return &ResolvedVersion{
			Version:   version,
			Resolved:  rec.Resolved,
			Integrity: rec.Integrity,
			Server:    rec.Server,
		}, nil
	}

	switch rng {
	case "", "latest", "*":
		latest := meta.Latest()
		if latest == "" {
			return nil, &RegistryError{Op: "resolve " + meta.Name, Err: fmt.Errorf("no latest tag")}
		}
		return pick(latest)
	}

	if _, ok := meta.Versions[rng]; ok {
		return pick(rng)
	}

	c, err := semver.NewConstraint(rng)
	if err != nil {
		return nil, fmt.Errorf("invalid version range %q for %s: %w", rng, meta.Name, err)
	}
	var best *semver.Version
	for raw := range meta.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if c.Check(v) && (best == nil || v.GreaterThan(best)) {
			best = v
		}
	}
	if best == nil {
		return nil, &NotFoundError{Kind: "server", Name: meta.Name + "@" + rng, Scope: "registry"}
	}
	return pick(best.Original())
}

// Search queries the registry for servers matching a free-text query.
func (r *HTTPRegistry) Search(ctx context.Context, query string) ([]*ServerMetadata, error) {
	var result struct {
		Servers []*ServerMetadata `json:"servers"`
	}
	if err := r.get(ctx, "search", "/search?q="+url.QueryEscape(query), &result); err != nil {
		return nil, err
	}
	sort.Slice(result.Servers, func(i, j int) bool { return result.Servers[i].Name < result.Servers[j].Name })
	return result.Servers, nil
}
