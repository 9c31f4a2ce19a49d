package client

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// tomlAdapter handles TOML config files (Codex). go-toml has no
// comment-preserving editor, so documents are round-tripped through a map;
// foreign keys and entries survive but comments and key order do not.
type tomlAdapter struct{}

func (a *tomlAdapter) parse(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return doc, nil
}

func (a *tomlAdapter) section(doc map[string]any, key string, createMissing bool) (map[string]any, error) {
	node := doc
	for _, part := range splitKey(key) {
		next, ok := node[part]
		if !ok {
			if !createMissing {
				return nil, nil
			}
			created := map[string]any{}
			node[part] = created
			node = created
			continue
		}
		sub, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config key %q is not a table", part)
		}
		node = sub
	}
	return node, nil
}

func (a *tomlAdapter) entries(data []byte, key string) ([]string, error) {
	doc, err := a.parse(data)
	if err != nil {
		return nil, err
	}
	section, err := a.section(doc, key, false)
	if err != nil || section == nil {
		return nil, err
	}
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (a *tomlAdapter) apply(data []byte, key string, upserts map[string]map[string]any, removals []string) ([]byte, error) {
	doc, err := a.parse(data)
	if err != nil {
		return nil, err
	}
	section, err := a.section(doc, key, true)
	if err != nil {
		return nil, err
	}
	for name, entry := range upserts {
		section[name] = entry
	}
	for _, name := range removals {
		delete(section, name)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
