package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"
)

const (
	globalConfigDirName  = "cpm"
	globalStoreFileName  = "servers.json"
	globalStoreLockName  = "servers.json.lock"
	globalRegistryEnvVar = "CPM_REGISTRY_URL"
)

// Store is the uniform CRUD surface over Server and Group records for one
// scope. GlobalStore and LocalStore implement it; commands obtain one
// through ResolveContext and never care which scope they got.
type Store interface {
	Scope() Scope
	// Dir is the directory holding the scope's documents. Sibling state
	// (sync ownership, lockfile) lives relative to it.
	Dir() string

	AddServer(s *Server, force bool) error
	RemoveServer(name string) error
	GetServer(name string) (*Server, error)
	ListServers() ([]*Server, error)
	UpdateServerEnv(name string, env map[string]string) error

	UpsertGroup(name, description string) error
	DeleteGroup(name string) error
	RenameGroup(oldName, newName string) error
	GetGroup(name string) (*Group, error)
	ListGroups() ([]*Group, error)
	AddServerToGroup(serverName, groupName string) error
	RemoveServerFromGroup(serverName, groupName string) error
	ServersInGroup(groupName string) ([]*Server, error)
}

// ValidateServer checks that a server definition is well-formed: a name and
// exactly one of the two variants.
func ValidateServer(s *Server) error {
	if s.Name == "" {
		return fmt.Errorf("server name is required")
	}
	switch {
	case s.Command != "" && s.URL != "":
		return fmt.Errorf("server %q: command and url are mutually exclusive", s.Name)
	case s.Command == "" && s.URL == "":
		return fmt.Errorf("server %q: either command (stdio) or url (remote) is required", s.Name)
	}
	return nil
}

// GlobalStore is the user-wide store: a single servers.json document under
// $XDG_CONFIG_HOME/cpm holding all global Server and Group records.
type GlobalStore struct {
	configDir string
}

// globalDocument is the persisted shape of servers.json.
type globalDocument struct {
	Servers map[string]*Server `json:"servers"`
	Groups  map[string]*Group  `json:"groups"`
}

func newGlobalDocument() *globalDocument {
	return &globalDocument{
		Servers: map[string]*Server{},
		Groups:  map[string]*Group{},
	}
}

// NewGlobalStore creates a GlobalStore at the default XDG config path.
func NewGlobalStore() *GlobalStore {
	return &GlobalStore{configDir: filepath.Join(xdg.ConfigHome, globalConfigDirName)}
}

// NewGlobalStoreAt creates a GlobalStore rooted at a custom directory.
// Useful for testing.
func NewGlobalStoreAt(dir string) *GlobalStore {
	return &GlobalStore{configDir: dir}
}

func (g *GlobalStore) Scope() Scope { return ScopeGlobal }
func (g *GlobalStore) Dir() string  { return g.configDir }

// StorePath returns the full path to the servers.json document.
func (g *GlobalStore) StorePath() string {
	return filepath.Join(g.configDir, globalStoreFileName)
}

func (g *GlobalStore) lockPath() string {
	return filepath.Join(g.configDir, globalStoreLockName)
}

// load reads the document from disk. A missing file yields an empty document.
func (g *GlobalStore) load() (*globalDocument, error) {
	doc := newGlobalDocument()
	err := readJSON(g.StorePath(), doc)
	if os.IsNotExist(err) {
		return newGlobalDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading global store: %w", err)
	}
	if doc.Servers == nil {
		doc.Servers = map[string]*Server{}
	}
	if doc.Groups == nil {
		doc.Groups = map[string]*Group{}
	}
	return doc, nil
}

// save persists the document atomically. Group member lists are recomputed
// from server tags so the two views never drift.
func (g *GlobalStore) save(doc *globalDocument) error {
	for name, grp := range doc.Groups {
		grp.Servers = membersOf(doc.Servers, name)
	}
	return writeJSONAtomic(g.StorePath(), doc)
}

// mutate runs fn over the document under the scope's file lock, persisting
// the result. The full read-modify-write happens with the lock held so
// concurrent cpm invocations cannot lose updates.
func (g *GlobalStore) mutate(fn func(doc *globalDocument) error) error {
	if err := os.MkdirAll(g.configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	unlock, err := acquireLock(g.lockPath())
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := g.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return g.save(doc)
}

func sortServers(servers []*Server) {
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
}

func sortGroups(groups []*Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
}

// membersOf derives a group's member list from the server tags. Always
// non-nil so empty groups serialize as [] rather than null.
func membersOf(servers map[string]*Server, group string) []string {
	members := []string{}
	for name, s := range servers {
		if s.HasGroup(group) {
			members = append(members, name)
		}
	}
	sort.Strings(members)
	return members
}

// AddServer inserts a server. Fails with DuplicateError if the name exists
// and force is false; with force the record is replaced.
func (g *GlobalStore) AddServer(s *Server, force bool) error {
	if err := ValidateServer(s); err != nil {
		return err
	}
	return g.mutate(func(doc *globalDocument) error {
		if _, exists := doc.Servers[s.Name]; exists && !force {
			return &DuplicateError{Name: s.Name, Scope: ScopeGlobal}
		}
		doc.Servers[s.Name] = s.Clone()
		return nil
	})
}

// RemoveServer deletes a server and cascades the removal through every
// group's member set.
func (g *GlobalStore) RemoveServer(name string) error {
	return g.mutate(func(doc *globalDocument) error {
		if _, ok := doc.Servers[name]; !ok {
			return &NotFoundError{Kind: "server", Name: name, Scope: ScopeGlobal}
		}
		delete(doc.Servers, name)
		return nil
	})
}

// GetServer returns a copy of the named server.
func (g *GlobalStore) GetServer(name string) (*Server, error) {
	doc, err := g.load()
	if err != nil {
		return nil, err
	}
	s, ok := doc.Servers[name]
	if !ok {
		return nil, &NotFoundError{Kind: "server", Name: name, Scope: ScopeGlobal}
	}
	return s.Clone(), nil
}

// ListServers returns all servers sorted by name.
func (g *GlobalStore) ListServers() ([]*Server, error) {
	doc, err := g.load()
	if err != nil {
		return nil, err
	}
	servers := make([]*Server, 0, len(doc.Servers))
	for _, s := range doc.Servers {
		servers = append(servers, s.Clone())
	}
	sortServers(servers)
	return servers, nil
}

// UpdateServerEnv replaces a server's environment variable map. The whole
// map is replaced, not merged, so deletions stick.
func (g *GlobalStore) UpdateServerEnv(name string, env map[string]string) error {
	return g.mutate(func(doc *globalDocument) error {
		s, ok := doc.Servers[name]
		if !ok {
			return &NotFoundError{Kind: "server", Name: name, Scope: ScopeGlobal}
		}
		s.Env = env
		return nil
	})
}

// UpsertGroup creates a group or updates its description.
func (g *GlobalStore) UpsertGroup(name, description string) error {
	return g.mutate(func(doc *globalDocument) error {
		now := time.Now().UTC()
		if grp, ok := doc.Groups[name]; ok {
			grp.Description = description
			grp.UpdatedAt = now
			return nil
		}
		doc.Groups[name] = &Group{
			Name:        name,
			Description: description,
			Servers:     []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return nil
	})
}

// DeleteGroup removes a group and untags every member server. The servers
// themselves are never deleted.
func (g *GlobalStore) DeleteGroup(name string) error {
	return g.mutate(func(doc *globalDocument) error {
		if _, ok := doc.Groups[name]; !ok {
			return &NotFoundError{Kind: "group", Name: name, Scope: ScopeGlobal}
		}
		delete(doc.Groups, name)
		for _, s := range doc.Servers {
			s.RemoveGroup(name)
		}
		return nil
	})
}

// RenameGroup renames a group and rewrites every member's tag in the same
// document write, so no server ever observes a state where neither name
// is present.
func (g *GlobalStore) RenameGroup(oldName, newName string) error {
	return g.mutate(func(doc *globalDocument) error {
		grp, ok := doc.Groups[oldName]
		if !ok {
			return &NotFoundError{Kind: "group", Name: oldName, Scope: ScopeGlobal}
		}
		if _, exists := doc.Groups[newName]; exists {
			return fmt.Errorf("group %q already exists in %s scope", newName, ScopeGlobal)
		}
		grp.Name = newName
		grp.UpdatedAt = time.Now().UTC()
		doc.Groups[newName] = grp
		delete(doc.Groups, oldName)
		for _, s := range doc.Servers {
			if s.HasGroup(oldName) {
				s.RemoveGroup(oldName)
				s.AddGroup(newName)
			}
		}
		return nil
	})
}

// GetGroup returns a group with its derived member list.
func (g *GlobalStore) GetGroup(name string) (*Group, error) {
	doc, err := g.load()
	if err != nil {
		return nil, err
	}
	grp, ok := doc.Groups[name]
	if !ok {
		return nil, &NotFoundError{Kind: "group", Name: name, Scope: ScopeGlobal}
	}
	out := *grp
	out.Servers = membersOf(doc.Servers, name)
	return &out, nil
}

// ListGroups returns all groups sorted by name, with derived member lists.
func (g *GlobalStore) ListGroups() ([]*Group, error) {
	doc, err := g.load()
	if err != nil {
		return nil, err
	}
	groups := make([]*Group, 0, len(doc.Groups))
	for name, grp := range doc.Groups {
		out := *grp
		out.Servers = membersOf(doc.Servers, name)
		groups = append(groups, &out)
	}
	sortGroups(groups)
	return groups, nil
}

// AddServerToGroup tags a server with a group, creating the group if absent.
func (g *GlobalStore) AddServerToGroup(serverName, groupName string) error {
	return g.mutate(func(doc *globalDocument) error {
		s, ok := doc.Servers[serverName]
		if !ok {
			return &NotFoundError{Kind: "server", Name: serverName, Scope: ScopeGlobal}
		}
		if _, ok := doc.Groups[groupName]; !ok {
			now := time.Now().UTC()
			doc.Groups[groupName] = &Group{Name: groupName, Servers: []string{}, CreatedAt: now, UpdatedAt: now}
		}
		s.AddGroup(groupName)
		return nil
	})
}

// RemoveServerFromGroup removes the membership relation only.
func (g *GlobalStore) RemoveServerFromGroup(serverName, groupName string) error {
	return g.mutate(func(doc *globalDocument) error {
		s, ok := doc.Servers[serverName]
		if !ok {
			return &NotFoundError{Kind: "server", Name: serverName, Scope: ScopeGlobal}
		}
		if _, ok := doc.Groups[groupName]; !ok {
			return &NotFoundError{Kind: "group", Name: groupName, Scope: ScopeGlobal}
		}
		s.RemoveGroup(groupName)
		return nil
	})
}

// ServersInGroup returns all members of a group, sorted by name. An unknown
// group is a NotFound; an existing empty group yields an empty slice.
func (g *GlobalStore) ServersInGroup(groupName string) ([]*Server, error) {
	doc, err := g.load()
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Groups[groupName]; !ok {
		return nil, &NotFoundError{Kind: "group", Name: groupName, Scope: ScopeGlobal}
	}
	var servers []*Server
	for _, name := range membersOf(doc.Servers, groupName) {
		servers = append(servers, doc.Servers[name].Clone())
	}
	return servers, nil
}
