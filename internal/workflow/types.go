// Package workflow models n8n workflow documents and the transforms n8nctl
// applies to them.
package workflow

import (
	"encoding/json"
	"fmt"
)

// Document is a full workflow document as returned by the n8n API. Kept as a
// generic map so that unknown, instance-specific fields survive fetch →
// backup → update round trips untouched.
type Document map[string]any

// Summary is the listing shape used by collection endpoints.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Node is one step in a workflow graph. Nodes are addressed by Name within
// their document; the connection map keys on names, not ids.
type Node struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Position    json.RawMessage `json:"position,omitempty"`
	Parameters  map[string]any  `json:"parameters,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	NotesInFlow bool            `json:"notesInFlow,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
	TypeVersion float64         `json:"typeVersion,omitempty"`
}

// ConnectionTarget is one edge endpoint in the connection graph.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Connections holds the outgoing edges of one node, grouped by output kind.
// Main is indexed [output branch][target].
type Connections struct {
	Main [][]ConnectionTarget `json:"main"`
}

// Graph is the typed projection of a Document used for traversal.
type Graph struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Active      bool                   `json:"active"`
	Nodes       []Node                 `json:"nodes"`
	Connections map[string]Connections `json:"connections"`
}

// ID returns the document's id field, if present.
func (d Document) ID() string {
	return stringField(d, "id")
}

// Name returns the document's name field, if present.
func (d Document) Name() string {
	return stringField(d, "name")
}

// WithName returns a copy of the document with its name replaced.
func (d Document) WithName(name string) Document {
	out := make(Document, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out["name"] = name
	return out
}

// DecodeGraph projects the document onto the typed graph shape used for
// webhook discovery and connection traversal.
func (d Document) DecodeGraph() (*Graph, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode workflow document: %w", err)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode workflow graph: %w", err)
	}
	return &g, nil
}

// FindNode returns the node with the given name, or nil.
func (g *Graph) FindNode(name string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NextNode follows the first outgoing "main" connection of the named node
// (first output branch, first target) and returns the target node, or nil
// when the node has no downstream neighbor.
func (g *Graph) NextNode(name string) *Node {
	conns, ok := g.Connections[name]
	if !ok || len(conns.Main) == 0 || len(conns.Main[0]) == 0 {
		return nil
	}
	return g.FindNode(conns.Main[0][0].Node)
}

func stringField(d Document, key string) string {
	if v, ok := d[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		// Some n8n versions hand out numeric ids.
		if n, ok := v.(float64); ok {
			return fmt.Sprintf("%.0f", n)
		}
	}
	return ""
}
