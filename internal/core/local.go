package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ManifestFileName is the project declaration file, the package.json
	// equivalent.
	ManifestFileName = "server.json"
	// LockfileFileName is the resolved-versions record, the
	// package-lock.json equivalent.
	LockfileFileName = "server-lock.json"
	// localStateDirName holds project-level state that is not part of the
	// declared manifest: full server definitions, group metadata, sync
	// ownership.
	localStateDirName = ".cpm"

	localStoreFileName = "servers.json"
	localStoreLockName = "servers.json.lock"
)

// LocalStore is the project-wide store. The manifest (server.json) declares
// server names and version ranges; the full definitions and group metadata
// live under .cpm/ next to it. Both are kept in step by every mutation.
type LocalStore struct {
	projectDir string
}

// NewLocalStore creates a LocalStore rooted at projectDir. The directory
// must already contain a manifest; use InitProject to create one.
func NewLocalStore(projectDir string) *LocalStore {
	return &LocalStore{projectDir: projectDir}
}

func (l *LocalStore) Scope() Scope { return ScopeLocal }

// Dir returns the project root.
func (l *LocalStore) Dir() string { return l.projectDir }

// StateDir returns the .cpm directory for this project.
func (l *LocalStore) StateDir() string {
	return filepath.Join(l.projectDir, localStateDirName)
}

// ManifestPath returns the path to server.json.
func (l *LocalStore) ManifestPath() string {
	return filepath.Join(l.projectDir, ManifestFileName)
}

// LockfilePath returns the path to server-lock.json.
func (l *LocalStore) LockfilePath() string {
	return filepath.Join(l.projectDir, LockfileFileName)
}

func (l *LocalStore) storePath() string {
	return filepath.Join(l.StateDir(), localStoreFileName)
}

func (l *LocalStore) lockPath() string {
	return filepath.Join(l.StateDir(), localStoreLockName)
}

// FindProjectRoot walks upward from start looking for a server.json
// manifest. Returns the containing directory, or "" when no ancestor has
// one.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// InitProject writes a fresh manifest into dir. Fails if one already exists.
func InitProject(dir, name string) (*LocalStore, error) {
	path := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists in %s", ManifestFileName, dir)
	}
	if name == "" {
		name = filepath.Base(dir)
	}
	if err := writeJSONAtomic(path, NewManifest(name, "")); err != nil {
		return nil, err
	}
	return NewLocalStore(dir), nil
}

// LoadManifest reads and parses the project manifest.
func (l *LocalStore) LoadManifest() (*Manifest, error) {
	m := &Manifest{}
	if err := readJSON(l.ManifestPath(), m); err != nil {
		if os.IsNotExist(err) {
			return nil, &ScopeError{Scope: ScopeLocal, Dir: l.projectDir, Reason: "no " + ManifestFileName}
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if m.Servers == nil {
		m.Servers = map[string]string{}
	}
	if m.DevServers == nil {
		m.DevServers = map[string]string{}
	}
	if m.Groups == nil {
		m.Groups = map[string][]string{}
	}
	if m.Config == nil {
		m.Config = map[string]map[string]string{}
	}
	return m, nil
}

// SaveManifest persists the manifest atomically.
func (l *LocalStore) SaveManifest(m *Manifest) error {
	return writeJSONAtomic(l.ManifestPath(), m)
}

func (l *LocalStore) loadDoc() (*globalDocument, error) {
	doc := newGlobalDocument()
	err := readJSON(l.storePath(), doc)
	if os.IsNotExist(err) {
		return newGlobalDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local store: %w", err)
	}
	if doc.Servers == nil {
		doc.Servers = map[string]*Server{}
	}
	if doc.Groups == nil {
		doc.Groups = map[string]*Group{}
	}
	return doc, nil
}

// mutate runs fn over both project documents under the scope's file lock.
// The manifest's declaration maps are re-derived from the definitions before
// writing so server.json and .cpm/servers.json cannot drift.
func (l *LocalStore) mutate(fn func(doc *globalDocument, m *Manifest) error) error {
	if err := os.MkdirAll(l.StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	unlock, err := acquireLock(l.lockPath())
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := l.loadDoc()
	if err != nil {
		return err
	}
	m, err := l.LoadManifest()
	if err != nil {
		return err
	}
	if err := fn(doc, m); err != nil {
		return err
	}

	for name, grp := range doc.Groups {
		grp.Servers = membersOf(doc.Servers, name)
		m.Groups[name] = grp.Servers
	}
	for name := range m.Groups {
		if _, ok := doc.Groups[name]; !ok {
			delete(m.Groups, name)
		}
	}

	if err := writeJSONAtomic(l.storePath(), doc); err != nil {
		return err
	}
	return l.SaveManifest(m)
}

// declaredRangeFor picks the manifest range for a newly added server:
// a caret range over its pinned version, or "latest" when unversioned.
func declaredRangeFor(s *Server) string {
	if s.Version != "" {
		return "^" + s.Version
	}
	return "latest"
}

// AddServer inserts a server definition and declares it in the manifest.
func (l *LocalStore) AddServer(s *Server, force bool) error {
	if err := ValidateServer(s); err != nil {
		return err
	}
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		if _, exists := doc.Servers[s.Name]; exists && !force {
			return &DuplicateError{Name: s.Name, Scope: ScopeLocal}
		}
		doc.Servers[s.Name] = s.Clone()
		if _, dev := m.DevServers[s.Name]; !dev {
			m.Servers[s.Name] = declaredRangeFor(s)
		}
		if len(s.Env) > 0 {
			cfg := map[string]string{}
			for k, v := range s.Env {
				cfg[k] = v
			}
			m.Config[s.Name] = cfg
		}
		return nil
	})
}

// AddDevServer inserts a server under the devServers section.
func (l *LocalStore) AddDevServer(s *Server, force bool) error {
	if err := ValidateServer(s); err != nil {
		return err
	}
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		if _, exists := doc.Servers[s.Name]; exists && !force {
			return &DuplicateError{Name: s.Name, Scope: ScopeLocal}
		}
		doc.Servers[s.Name] = s.Clone()
		delete(m.Servers, s.Name)
		m.DevServers[s.Name] = declaredRangeFor(s)
		return nil
	})
}

// RemoveServer deletes a server, its manifest declaration, its config
// overrides and its group memberships. The lockfile is left alone; install
// prunes it.
func (l *LocalStore) RemoveServer(name string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		if _, ok := doc.Servers[name]; !ok {
			return &NotFoundError{Kind: "server", Name: name, Scope: ScopeLocal}
		}
		delete(doc.Servers, name)
		delete(m.Servers, name)
		delete(m.DevServers, name)
		delete(m.Config, name)
		return nil
	})
}

// GetServer returns a copy of the named server with manifest config
// overrides applied to its environment.
func (l *LocalStore) GetServer(name string) (*Server, error) {
	doc, err := l.loadDoc()
	if err != nil {
		return nil, err
	}
	s, ok := doc.Servers[name]
	if !ok {
		return nil, &NotFoundError{Kind: "server", Name: name, Scope: ScopeLocal}
	}
	m, err := l.LoadManifest()
	if err != nil {
		return nil, err
	}
	out := s.Clone()
	applyConfigOverrides(m, out)
	return out, nil
}

// applyConfigOverrides layers the manifest's config section for a server
// onto its environment.
func applyConfigOverrides(m *Manifest, s *Server) {
	overrides := m.Config[s.Name]
	if len(overrides) == 0 {
		return
	}
	if s.Env == nil {
		s.Env = map[string]string{}
	}
	for k, v := range overrides {
		s.Env[k] = v
	}
}

// ListServers returns all project servers sorted by name.
func (l *LocalStore) ListServers() ([]*Server, error) {
	doc, err := l.loadDoc()
	if err != nil {
		return nil, err
	}
	m, err := l.LoadManifest()
	if err != nil {
		return nil, err
	}
	servers := make([]*Server, 0, len(doc.Servers))
	for _, s := range doc.Servers {
		out := s.Clone()
		applyConfigOverrides(m, out)
		servers = append(servers, out)
	}
	sortServers(servers)
	return servers, nil
}

// SetDeclaredRange rewrites the manifest's declared range for a server,
// moving it between the servers and devServers sections as needed.
func (l *LocalStore) SetDeclaredRange(name, rng string, dev bool) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		if _, ok := doc.Servers[name]; !ok {
			return &NotFoundError{Kind: "server", Name: name, Scope: ScopeLocal}
		}
		if dev {
			delete(m.Servers, name)
			m.DevServers[name] = rng
		} else {
			delete(m.DevServers, name)
			m.Servers[name] = rng
		}
		return nil
	})
}

// UpdateServerEnv replaces a server's environment map and mirrors it into
// the manifest's config section.
func (l *LocalStore) UpdateServerEnv(name string, env map[string]string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		s, ok := doc.Servers[name]
		if !ok {
			return &NotFoundError{Kind: "server", Name: name, Scope: ScopeLocal}
		}
		s.Env = env
		if len(env) > 0 {
			m.Config[name] = env
		} else {
			delete(m.Config, name)
		}
		return nil
	})
}

// UpsertGroup creates a group or updates its description.
func (l *LocalStore) UpsertGroup(name, description string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
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

// DeleteGroup removes a group and untags every member. Servers survive.
func (l *LocalStore) DeleteGroup(name string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		if _, ok := doc.Groups[name]; !ok {
			return &NotFoundError{Kind: "group", Name: name, Scope: ScopeLocal}
		}
		delete(doc.Groups, name)
		for _, s := range doc.Servers {
			s.RemoveGroup(name)
		}
		return nil
	})
}

// RenameGroup renames a group and rewrites member tags in one write.
func (l *LocalStore) RenameGroup(oldName, newName string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		grp, ok := doc.Groups[oldName]
		if !ok {
			return &NotFoundError{Kind: "group", Name: oldName, Scope: ScopeLocal}
		}
		if _, exists := doc.Groups[newName]; exists {
			return fmt.Errorf("group %q already exists in %s scope", newName, ScopeLocal)
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
func (l *LocalStore) GetGroup(name string) (*Group, error) {
	doc, err := l.loadDoc()
	if err != nil {
		return nil, err
	}
	grp, ok := doc.Groups[name]
	if !ok {
		return nil, &NotFoundError{Kind: "group", Name: name, Scope: ScopeLocal}
	}
	out := *grp
	out.Servers = membersOf(doc.Servers, name)
	return &out, nil
}

// ListGroups returns all groups sorted by name.
func (l *LocalStore) ListGroups() ([]*Group, error) {
	doc, err := l.loadDoc()
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

// AddServerToGroup tags a server, creating the group if absent.
func (l *LocalStore) AddServerToGroup(serverName, groupName string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		s, ok := doc.Servers[serverName]
		if !ok {
			return &NotFoundError{Kind: "server", Name: serverName, Scope: ScopeLocal}
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
func (l *LocalStore) RemoveServerFromGroup(serverName, groupName string) error {
	return l.mutate(func(doc *globalDocument, m *Manifest) error {
		s, ok := doc.Servers[serverName]
		if !ok {
			return &NotFoundError{Kind: "server", Name: serverName, Scope: ScopeLocal}
		}
		if _, ok := doc.Groups[groupName]; !ok {
			return &NotFoundError{Kind: "group", Name: groupName, Scope: ScopeLocal}
		}
		s.RemoveGroup(groupName)
		return nil
	})
}

// ServersInGroup returns the members of a group, sorted by name.
func (l *LocalStore) ServersInGroup(groupName string) ([]*Server, error) {
	doc, err := l.loadDoc()
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Groups[groupName]; !ok {
		return nil, &NotFoundError{Kind: "group", Name: groupName, Scope: ScopeLocal}
	}
	m, err := l.LoadManifest()
	if err != nil {
		return nil, err
	}
	var servers []*Server
	for _, name := range membersOf(doc.Servers, groupName) {
		out := doc.Servers[name].Clone()
		applyConfigOverrides(m, out)
		servers = append(servers, out)
	}
	return servers, nil
}

// Validate checks the project for internal consistency and returns
// human-readable problems. An empty slice means the project is sound.
func (l *LocalStore) Validate() ([]string, error) {
	m, err := l.LoadManifest()
	if err != nil {
		return nil, err
	}
	doc, err := l.loadDoc()
	if err != nil {
		return nil, err
	}

	var problems []string
	for _, name := range m.DeclaredNames() {
		if _, ok := doc.Servers[name]; !ok {
			problems = append(problems, fmt.Sprintf("manifest declares %q but no definition exists (run cpm install)", name))
		}
	}
	for name, s := range doc.Servers {
		if _, ok := m.DeclaredRange(name); !ok {
			problems = append(problems, fmt.Sprintf("server %q has a definition but is not declared in %s", name, ManifestFileName))
		}
		if err := ValidateServer(s); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for groupName, members := range m.Groups {
		for _, member := range members {
			if _, ok := doc.Servers[member]; !ok {
				problems = append(problems, fmt.Sprintf("group %q references unknown server %q", groupName, member))
			}
		}
	}
	return problems, nil
}
