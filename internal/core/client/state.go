package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// SyncStateFileName is the ownership registry written next to a scope's
// documents. It records, per client, exactly which entry names cpm wrote,
// so removal never touches entries the user added by hand.
const SyncStateFileName = "sync-state.json"

// SyncState maps client machine name to the entry names cpm owns there.
type SyncState struct {
	Clients map[string][]string `json:"clients"`
}

// LoadSyncState reads the ownership registry. Missing file yields an empty
// state.
func LoadSyncState(path string) (*SyncState, error) {
	state := &SyncState{Clients: map[string][]string{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync state: %w", err)
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing sync state: %w", err)
	}
	if state.Clients == nil {
		state.Clients = map[string][]string{}
	}
	return state, nil
}

// Save persists the registry atomically.
func (s *SyncState) Save(path string) error {
	for client, names := range s.Clients {
		sort.Strings(names)
		if len(names) == 0 {
			delete(s.Clients, client)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// Owned returns the entry names cpm owns in a client's config.
func (s *SyncState) Owned(client string) []string {
	return append([]string(nil), s.Clients[client]...)
}

// SetOwned replaces the owned set for a client.
func (s *SyncState) SetOwned(client string, names []string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	s.Clients[client] = sorted
}
