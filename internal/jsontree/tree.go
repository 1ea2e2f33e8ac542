// Package jsontree provides structural navigation over a JSON object for the
// interactive body editor. Paths are explicit key slices descended one level
// at a time, so arbitrary user keys (dots included) can never be misparsed
// into the wrong location.
package jsontree

import (
	"encoding/json"
	"sort"
)

// Entry is one visible row of the flattened tree.
type Entry struct {
	Path     []string // keys from the root to this entry
	Depth    int
	Value    any  // leaf value, nil for objects
	IsObject bool // true when the entry has children
}

// Key returns the entry's own key (last path element).
func (e Entry) Key() string {
	return e.Path[len(e.Path)-1]
}

// Flatten walks the object depth-first with sorted keys and returns the tree
// rows in display order.
func Flatten(data map[string]any) []Entry {
	var entries []Entry
	flatten(data, nil, 0, &entries)
	return entries
}

func flatten(obj map[string]any, prefix []string, depth int, out *[]Entry) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := append(append([]string{}, prefix...), k)
		if child, ok := obj[k].(map[string]any); ok {
			*out = append(*out, Entry{Path: path, Depth: depth, IsObject: true})
			flatten(child, path, depth+1, out)
			continue
		}
		*out = append(*out, Entry{Path: path, Depth: depth, Value: obj[k]})
	}
}

// Get returns the value at path.
func Get(data map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return data, true
	}

	parent, ok := descend(data, path[:len(path)-1])
	if !ok {
		return nil, false
	}
	v, ok := parent[path[len(path)-1]]
	return v, ok
}

// Set writes value at path. Intermediate objects must already exist; setting
// through a missing or non-object parent is a no-op.
func Set(data map[string]any, path []string, value any) {
	if len(path) == 0 {
		return
	}
	parent, ok := descend(data, path[:len(path)-1])
	if !ok {
		return
	}
	parent[path[len(path)-1]] = value
}

// Delete removes the entry at path. Missing paths are a no-op.
func Delete(data map[string]any, path []string) {
	if len(path) == 0 {
		return
	}
	parent, ok := descend(data, path[:len(path)-1])
	if !ok {
		return
	}
	delete(parent, path[len(path)-1])
}

// ParseValue interprets user input as JSON when possible, else as a string.
// "5" becomes a number, "true" a bool, "{\"a\":1}" an object; anything that
// does not parse stays a plain string.
func ParseValue(input string) any {
	var v any
	if err := json.Unmarshal([]byte(input), &v); err == nil {
		return v
	}
	return input
}

// descend walks the object one key at a time to the parent of the target.
func descend(data map[string]any, path []string) (map[string]any, bool) {
	current := data
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}
