// Package core provides the business logic for cpm.
// It has zero UI dependencies and is independently testable.
package core

import "time"

// Scope identifies which configuration namespace an operation targets.
type Scope string

const (
	// ScopeGlobal is the user-wide store at $XDG_CONFIG_HOME/cpm/servers.json.
	ScopeGlobal Scope = "global"
	// ScopeLocal is the project-wide store rooted at a server.json manifest.
	ScopeLocal Scope = "local"
)

// ServerKind discriminates the two server variants.
type ServerKind string

const (
	KindStdio  ServerKind = "stdio"
	KindRemote ServerKind = "remote"
)

// Server is an MCP server definition. Exactly one variant applies:
// stdio servers carry Command/Args/Env, remote servers carry URL/Headers.
// Kind reports which one; consumers switch on it exhaustively.
type Server struct {
	Name string `json:"name"`
	// Type is the transport: "stdio" (default when Command is set),
	// "http" or "sse" for remote servers.
	Type string `json:"type,omitempty"`

	// Stdio variant.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// Remote variant.
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Groups this server is tagged with.
	Groups []string `json:"groups,omitempty"`
	// Version is the pinned version string, if any.
	Version string `json:"version,omitempty"`
}

// Kind reports the server variant.
func (s *Server) Kind() ServerKind {
	if s.Command != "" {
		return KindStdio
	}
	return KindRemote
}

// HasGroup reports whether the server is tagged with the given group.
func (s *Server) HasGroup(group string) bool {
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// AddGroup tags the server with a group. No-op if already tagged.
func (s *Server) AddGroup(group string) {
	if !s.HasGroup(group) {
		s.Groups = append(s.Groups, group)
	}
}

// RemoveGroup removes a group tag. No-op if not tagged.
func (s *Server) RemoveGroup(group string) {
	filtered := s.Groups[:0]
	for _, g := range s.Groups {
		if g != group {
			filtered = append(filtered, g)
		}
	}
	s.Groups = filtered
}

// Clone returns a deep copy of the server.
func (s *Server) Clone() *Server {
	c := *s
	c.Args = append([]string(nil), s.Args...)
	c.Groups = append([]string(nil), s.Groups...)
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	if s.Headers != nil {
		c.Headers = make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			c.Headers[k] = v
		}
	}
	return &c
}

// Group is a named set of servers used for bulk operations.
// Membership lives on the servers themselves (group tags); Group carries
// the metadata and a derived member list.
type Group struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Servers     []string  `json:"servers"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Manifest is the project-level declaration file (server.json),
// the equivalent of package.json in npm.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`

	// Servers maps server name to a version range (e.g. "^1.0.0", "latest").
	Servers map[string]string `json:"servers"`
	// DevServers are development-only dependencies.
	DevServers map[string]string `json:"devServers"`
	// Groups maps group name to member server names.
	Groups map[string][]string `json:"groups"`
	// Config holds per-server environment variable overrides.
	Config map[string]map[string]string `json:"config"`
}

// NewManifest returns an initialized manifest for a new project.
func NewManifest(name, version string) *Manifest {
	if version == "" {
		version = "1.0.0"
	}
	return &Manifest{
		Name:       name,
		Version:    version,
		Servers:    map[string]string{},
		DevServers: map[string]string{},
		Groups:     map[string][]string{},
		Config:     map[string]map[string]string{},
	}
}

// DeclaredRange returns the version range declared for a server in either
// the servers or devServers section, and whether it is declared at all.
func (m *Manifest) DeclaredRange(name string) (string, bool) {
	if r, ok := m.Servers[name]; ok {
		return r, true
	}
	if r, ok := m.DevServers[name]; ok {
		return r, true
	}
	return "", false
}

// DeclaredNames returns all declared server names (servers + devServers).
func (m *Manifest) DeclaredNames() []string {
	names := make([]string, 0, len(m.Servers)+len(m.DevServers))
	for n := range m.Servers {
		names = append(names, n)
	}
	for n := range m.DevServers {
		if _, dup := m.Servers[n]; !dup {
			names = append(names, n)
		}
	}
	return names
}

// Lockfile is the tool-written record of exactly resolved versions
// (server-lock.json), the equivalent of package-lock.json.
type Lockfile struct {
	LockfileVersion int                  `json:"lockfileVersion"`
	Generated       string               `json:"generated,omitempty"`
	Servers         map[string]LockEntry `json:"servers"`
}

// LockEntry pins one resolved server.
type LockEntry struct {
	Version   string `json:"version"`
	Resolved  string `json:"resolved"`
	Integrity string `json:"integrity"`
	// Installation is the snapshot of the server definition at install time.
	Installation *Server `json:"installation,omitempty"`
}

// CurrentLockfileVersion is the schema version this tool writes.
const CurrentLockfileVersion = 1
