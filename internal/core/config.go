package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

const settingsFileName = "config.json"

// Settings is the tool-level configuration stored alongside the global
// store. Distinct from server definitions: these keys tune cpm itself.
type Settings struct {
	// Registry overrides the default registry URL.
	Registry string `json:"registry,omitempty"`
	// DefaultClients limits sync to a fixed client set when --to is not
	// given. Empty means "all detected clients".
	DefaultClients []string `json:"defaultClients,omitempty"`
	// Color is the output color policy: "auto", "always" or "never".
	Color string `json:"color,omitempty"`
}

// SettingsKeys lists the keys config get/set/unset accept.
func SettingsKeys() []string {
	return []string{"color", "defaultClients", "registry"}
}

// SettingsPath returns the settings file location, honoring a custom
// config dir.
func SettingsPath(configDir string) string {
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, globalConfigDirName)
	}
	return filepath.Join(configDir, settingsFileName)
}

// LoadSettings reads settings from configDir (default XDG location when
// empty). Missing file yields zero-value settings.
func LoadSettings(configDir string) (*Settings, error) {
	s := &Settings{}
	err := readJSON(SettingsPath(configDir), s)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return s, nil
}

// SaveSettings persists settings atomically.
func SaveSettings(configDir string, s *Settings) error {
	return writeJSONAtomic(SettingsPath(configDir), s)
}

// Get returns the value for a settings key.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "registry":
		return s.Registry, nil
	case "defaultClients":
		return strings.Join(s.DefaultClients, ","), nil
	case "color":
		return s.Color, nil
	default:
		return "", unknownSettingsKey(key)
	}
}

// Set updates a settings key from its string form.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "registry":
		s.Registry = value
	case "defaultClients":
		s.DefaultClients = nil
		for _, c := range strings.Split(value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				s.DefaultClients = append(s.DefaultClients, c)
			}
		}
		sort.Strings(s.DefaultClients)
	case "color":
		switch value {
		case "auto", "always", "never":
			s.Color = value
		default:
			return fmt.Errorf("color must be auto, always or never, got %q", value)
		}
	default:
		return unknownSettingsKey(key)
	}
	return nil
}

// Unset resets a settings key to its default.
func (s *Settings) Unset(key string) error {
	switch key {
	case "registry":
		s.Registry = ""
	case "defaultClients":
		s.DefaultClients = nil
	case "color":
		s.Color = ""
	default:
		return unknownSettingsKey(key)
	}
	return nil
}

func unknownSettingsKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(SettingsKeys(), ", "))
}
