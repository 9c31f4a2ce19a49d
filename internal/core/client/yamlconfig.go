package client

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlAdapter handles YAML config files through the yaml.v3 node API, which
// round-trips comments and key order of untouched content.
type yamlAdapter struct {
	layout string
}

func (a *yamlAdapter) entries(data []byte, key string) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	section := findSection(&doc, splitKey(key))
	if section == nil {
		return nil, nil
	}

	var names []string
	switch a.layout {
	case layoutList:
		if section.Kind != yaml.SequenceNode {
			return nil, nil
		}
		for _, item := range section.Content {
			if name := mappingValue(item, "name"); name != nil {
				names = append(names, name.Value)
			}
		}
	default:
		if section.Kind != yaml.MappingNode {
			return nil, nil
		}
		for i := 0; i+1 < len(section.Content); i += 2 {
			names = append(names, section.Content[i].Value)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *yamlAdapter) apply(data []byte, key string, upserts map[string]map[string]any, removals []string) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	section, err := ensureSection(&doc, splitKey(key), a.layout)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(upserts))
	for name := range upserts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := a.upsert(section, name, upserts[name]); err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", name, err)
		}
	}
	for _, name := range removals {
		a.remove(section, name)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *yamlAdapter) upsert(section *yaml.Node, name string, entry map[string]any) error {
	if a.layout == layoutList {
		full := map[string]any{"name": name}
		for k, v := range entry {
			full[k] = v
		}
		node := &yaml.Node{}
		if err := node.Encode(full); err != nil {
			return err
		}
		for i, item := range section.Content {
			if n := mappingValue(item, "name"); n != nil && n.Value == name {
				section.Content[i] = node
				return nil
			}
		}
		section.Content = append(section.Content, node)
		return nil
	}

	node := &yaml.Node{}
	if err := node.Encode(entry); err != nil {
		return err
	}
	for i := 0; i+1 < len(section.Content); i += 2 {
		if section.Content[i].Value == name {
			section.Content[i+1] = node
			return nil
		}
	}
	section.Content = append(section.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: name},
		node)
	return nil
}

func (a *yamlAdapter) remove(section *yaml.Node, name string) {
	if a.layout == layoutList {
		for i, item := range section.Content {
			if n := mappingValue(item, "name"); n != nil && n.Value == name {
				section.Content = append(section.Content[:i], section.Content[i+1:]...)
				return
			}
		}
		return
	}
	for i := 0; i+1 < len(section.Content); i += 2 {
		if section.Content[i].Value == name {
			section.Content = append(section.Content[:i], section.Content[i+2:]...)
			return
		}
	}
}

// findSection walks a mapping chain and returns the value node at the end,
// or nil when any link is missing.
func findSection(doc *yaml.Node, path []string) *yaml.Node {
	node := documentRoot(doc)
	for _, part := range path {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		node = mappingValue(node, part)
	}
	return node
}

// ensureSection walks the mapping chain, creating missing links. The leaf
// is created as a mapping or sequence per the layout.
func ensureSection(doc *yaml.Node, path []string, layout string) (*yaml.Node, error) {
	node := documentRoot(doc)
	if node == nil {
		return nil, fmt.Errorf("empty document")
	}
	for i, part := range path {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("config key %q is not a mapping", part)
		}
		next := mappingValue(node, part)
		if next == nil {
			kind := yaml.MappingNode
			if i == len(path)-1 && layout == layoutList {
				kind = yaml.SequenceNode
			}
			next = &yaml.Node{Kind: kind}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: part},
				next)
		}
		node = next
	}
	return node, nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// mappingValue returns the value node for a key in a mapping, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
