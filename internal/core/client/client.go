// Package client defines the Client abstraction for cpm.
//
// A Client represents an MCP-capable tool (Claude Desktop, Cursor, VS Code,
// etc.). Each client knows its own config paths, file format, and entry
// shape. Clients are self-contained Go structs registered at init time; the
// sync engine treats them uniformly.
package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/barysiuk/cpm/internal/core"
)

// Client defines how an MCP-capable tool integrates with cpm.
type Client interface {
	// Identity
	Name() string        // machine name: "cursor", "claude-desktop"
	DisplayName() string // human name: "Cursor", "Claude Desktop"
	DownloadURL() string

	// Detection
	IsInstalled() bool
	// ConfigPath is the config file sync targets: the first existing
	// candidate path, else the primary one.
	ConfigPath() string

	// Capability
	SupportsRemote() bool

	// Translate renders a server definition into this client's entry
	// shape. Fails for servers the client cannot represent.
	Translate(s *core.Server) (map[string]any, error)

	// Entries lists the server names currently present in the config.
	// A missing file yields an empty list.
	Entries() ([]string, error)

	// Write applies upserts and removals to the config file in one pass,
	// leaving everything outside the touched entries byte-identical.
	// With create false a missing file is an error.
	Write(upserts map[string]map[string]any, removals []string, create bool) error
}

// --- Registry ---

var clients []Client

// Register adds a client to the global registry.
func Register(c Client) { clients = append(clients, c) }

// All returns all registered clients, sorted by machine name.
func All() []Client {
	out := append([]Client(nil), clients...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ByName returns the client with the given machine name, if registered.
func ByName(name string) (Client, bool) {
	for _, c := range clients {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// ByNames resolves client names, failing on the first unknown one.
func ByNames(names []string) ([]Client, error) {
	result := make([]Client, 0, len(names))
	for _, name := range names {
		c, ok := ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown client %q; available: %s",
				name, strings.Join(Names(All()), ", "))
		}
		result = append(result, c)
	}
	return result, nil
}

// Detect returns all clients installed on this machine.
func Detect() []Client {
	var detected []Client
	for _, c := range All() {
		if c.IsInstalled() {
			detected = append(detected, c)
		}
	}
	return detected
}

// Names returns the machine names of the given clients.
func Names(cs []Client) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return names
}

// DisplayNames returns the display names of the given clients.
func DisplayNames(cs []Client) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.DisplayName()
	}
	return names
}
