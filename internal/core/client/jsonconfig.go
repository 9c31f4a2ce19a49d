package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// jsoncAdapter handles JSON and JSONC config files. Reads go through a
// standardized copy; writes patch the original document in place so key
// order and everything untouched survive byte for byte.
type jsoncAdapter struct {
	// strict marks clients whose config must stay plain JSON. Strict
	// documents are edited with sjson path sets; JSONC documents go
	// through the hujson AST so comments survive.
	strict bool
}

func (a *jsoncAdapter) entries(data []byte, key string) ([]string, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	section := gjson.GetBytes(std, key)
	if !section.Exists() || !section.IsObject() {
		return nil, nil
	}
	var names []string
	section.ForEach(func(k, _ gjson.Result) bool {
		names = append(names, k.String())
		return true
	})
	sort.Strings(names)
	return names, nil
}

func (a *jsoncAdapter) apply(data []byte, key string, upserts map[string]map[string]any, removals []string) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return a.fresh(key, upserts)
	}
	if a.strict {
		return a.applyStrict(data, key, upserts, removals)
	}

	root, err := hujson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Build the container chain ("mcp" -> "mcp.servers") as needed.
	ptr := ""
	for _, part := range splitKey(key) {
		ptr += "/" + jsonPointerEscape(part)
		if root.Find(ptr) == nil {
			patch := fmt.Sprintf(`[{"op":"add","path":%q,"value":{}}]`, ptr)
			if err := root.Patch([]byte(patch)); err != nil {
				return nil, fmt.Errorf("creating config key %q: %w", part, err)
			}
		}
	}

	names := make([]string, 0, len(upserts))
	for name := range upserts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, err := json.Marshal(upserts[name])
		if err != nil {
			return nil, err
		}
		entryPtr := ptr + "/" + jsonPointerEscape(name)
		op := "add"
		if root.Find(entryPtr) != nil {
			op = "replace"
		}
		patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, entryPtr, value)
		if err := root.Patch([]byte(patch)); err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", name, err)
		}
	}

	for _, name := range removals {
		entryPtr := ptr + "/" + jsonPointerEscape(name)
		if root.Find(entryPtr) == nil {
			continue
		}
		patch := fmt.Sprintf(`[{"op":"remove","path":%q}]`, entryPtr)
		if err := root.Patch([]byte(patch)); err != nil {
			return nil, fmt.Errorf("removing entry %q: %w", name, err)
		}
	}

	return root.Pack(), nil
}

// applyStrict edits a plain-JSON document with sjson. Intermediate
// containers are created on demand; everything untouched keeps its
// existing formatting.
func (a *jsoncAdapter) applyStrict(data []byte, key string, upserts map[string]map[string]any, removals []string) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("parsing config: invalid JSON")
	}
	section := sjsonPath(splitKey(key))

	names := make([]string, 0, len(upserts))
	for name := range upserts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, err := json.Marshal(upserts[name])
		if err != nil {
			return nil, err
		}
		out, err := sjson.SetRawBytes(data, section+"."+sjsonEscape(name), value)
		if err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", name, err)
		}
		data = out
	}

	for _, name := range removals {
		p := section + "." + sjsonEscape(name)
		if !gjson.GetBytes(data, p).Exists() {
			continue
		}
		out, err := sjson.DeleteBytes(data, p)
		if err != nil {
			return nil, fmt.Errorf("removing entry %q: %w", name, err)
		}
		data = out
	}

	return data, nil
}

// fresh builds a new config document from scratch.
func (a *jsoncAdapter) fresh(key string, upserts map[string]map[string]any) ([]byte, error) {
	section := map[string]any{}
	for name, entry := range upserts {
		section[name] = entry
	}

	parts := splitKey(key)
	doc := any(section)
	for i := len(parts) - 1; i >= 0; i-- {
		doc = map[string]any{parts[i]: doc}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// sjsonPath joins key parts into an sjson path, escaping separators.
func sjsonPath(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = sjsonEscape(p)
	}
	return strings.Join(escaped, ".")
}

// sjsonEscape escapes characters that sjson treats as path syntax.
func sjsonEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// jsonPointerEscape escapes a JSON Pointer token (RFC 6901).
func jsonPointerEscape(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			result = append(result, '~', '0')
		case '/':
			result = append(result, '~', '1')
		default:
			result = append(result, s[i])
		}
	}
	return string(result)
}
