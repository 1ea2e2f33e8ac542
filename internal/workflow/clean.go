package workflow

// Clean strips instance-specific metadata from a workflow document so it can
// be imported into another n8n instance without id collisions or stale
// references. It is total (never fails), idempotent, and never mutates its
// input.
//
// Retained fields: name, nodes (reduced to name/type/position/parameters/
// notes/notesInFlow/disabled/typeVersion), connections, settings, staticData.
// Everything else (id, timestamps, execution stats, tags) is dropped.
func Clean(doc Document) Document {
	if doc == nil {
		return nil
	}

	out := Document{
		"name":        doc["name"],
		"nodes":       cleanNodes(doc["nodes"]),
		"connections": objectOr(doc["connections"], map[string]any{}),
		"settings":    objectOr(doc["settings"], map[string]any{}),
		"staticData":  objectOr(doc["staticData"], map[string]any{"lastId": float64(1)}),
	}
	return out
}

func cleanNodes(v any) []any {
	nodes, ok := v.([]any)
	if !ok {
		return []any{}
	}

	out := make([]any, 0, len(nodes))
	for _, nv := range nodes {
		node, ok := nv.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"name":        node["name"],
			"type":        node["type"],
			"position":    node["position"],
			"parameters":  objectOr(node["parameters"], map[string]any{}),
			"notes":       stringOr(node["notes"], ""),
			"notesInFlow": boolOr(node["notesInFlow"]),
			"disabled":    boolOr(node["disabled"]),
			"typeVersion": numberOr(node["typeVersion"], 1),
		})
	}
	return out
}

func objectOr(v any, fallback map[string]any) any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return fallback
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func boolOr(v any) bool {
	b, _ := v.(bool)
	return b
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return fallback
}
