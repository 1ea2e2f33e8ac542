package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

func graphFromJSON(t *testing.T, raw string) *workflow.Graph {
	t.Helper()
	var doc workflow.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	g, err := doc.DecodeGraph()
	if err != nil {
		t.Fatalf("DecodeGraph() error: %v", err)
	}
	return g
}

const invoiceGraph = `{
	"id": "7",
	"name": "Invoice Sync",
	"nodes": [
		{"name": "Hook", "type": "n8n-nodes-base.webhook",
		 "parameters": {"path": "invoices", "httpMethod": "POST"}},
		{"name": "Old Hook", "type": "n8n-nodes-base.webhook", "disabled": true,
		 "parameters": {"path": "legacy"}},
		{"name": "Prep", "type": "n8n-nodes-base.set",
		 "parameters": {"assignments": {"assignments": [
			{"name": "customer", "value": ""},
			{"name": "amount", "value": 0}
		 ]}}},
		{"name": "Send", "type": "n8n-nodes-base.httpRequest"}
	],
	"connections": {
		"Hook": {"main": [[{"node": "Prep", "type": "main", "index": 0}]]},
		"Prep": {"main": [[{"node": "Send", "type": "main", "index": 0}]]}
	}
}`

func TestEntryPointsSkipsDisabled(t *testing.T) {
	g := graphFromJSON(t, invoiceGraph)
	entries := EntryPoints(g)
	if len(entries) != 1 || entries[0].Name != "Hook" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestEntryPointsNoneIsEmpty(t *testing.T) {
	g := graphFromJSON(t, `{"name":"No Hooks","nodes":[{"name":"A","type":"n8n-nodes-base.set"}]}`)
	if entries := EntryPoints(g); len(entries) != 0 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestResolveTarget(t *testing.T) {
	g := graphFromJSON(t, invoiceGraph)
	node := g.FindNode("Hook")

	target := ResolveTarget(node, "https://n8n.example.com/", ModeProduction)
	if target.URL != "https://n8n.example.com/webhook/invoices" {
		t.Errorf("url = %q", target.URL)
	}
	if target.Method != "POST" {
		t.Errorf("method = %q", target.Method)
	}

	target = ResolveTarget(node, "https://n8n.example.com", ModeTest)
	if target.URL != "https://n8n.example.com/webhook-test/invoices" {
		t.Errorf("test url = %q", target.URL)
	}
}

func TestResolveTargetDefaultsToGET(t *testing.T) {
	node := &workflow.Node{Name: "Hook", Type: "n8n-nodes-base.webhook",
		Parameters: map[string]any{"path": "/ping"}}
	target := ResolveTarget(node, "http://localhost:5678", ModeProduction)
	if target.Method != http.MethodGet {
		t.Errorf("method = %q", target.Method)
	}
	if target.URL != "http://localhost:5678/webhook/ping" {
		t.Errorf("url = %q", target.URL)
	}
}

func TestSuggestedFieldsFromAssignments(t *testing.T) {
	g := graphFromJSON(t, invoiceGraph)
	fields := SuggestedFields(g, "Hook")
	if len(fields) != 2 || fields[0] != "customer" || fields[1] != "amount" {
		t.Errorf("fields = %v", fields)
	}
}

func TestSuggestedFieldsFromAssignmentValueMode(t *testing.T) {
	g := graphFromJSON(t, `{
		"name": "Value Mode",
		"nodes": [
			{"name": "Hook", "type": "n8n-nodes-base.webhook", "parameters": {"path": "x"}},
			{"name": "Prep", "type": "n8n-nodes-base.set",
			 "parameters": {"assignments": {"value": [
				{"name": "amount"},
				{"name": "currency"}
			 ]}}}
		],
		"connections": {"Hook": {"main": [[{"node": "Prep", "type": "main", "index": 0}]]}}
	}`)
	fields := SuggestedFields(g, "Hook")
	if len(fields) != 2 || fields[0] != "amount" || fields[1] != "currency" {
		t.Errorf("fields = %v, want [amount currency]", fields)
	}
}

func TestSuggestedFieldsFromLegacyValues(t *testing.T) {
	g := graphFromJSON(t, `{
		"name": "Legacy",
		"nodes": [
			{"name": "Hook", "type": "n8n-nodes-base.webhook", "parameters": {"path": "x"}},
			{"name": "Prep", "type": "n8n-nodes-base.set",
			 "parameters": {"values": {
				"string": [{"name": "city"}],
				"number": [{"name": "count"}],
				"boolean": [{"name": "urgent"}]
			 }}}
		],
		"connections": {"Hook": {"main": [[{"node": "Prep", "type": "main", "index": 0}]]}}
	}`)
	fields := SuggestedFields(g, "Hook")
	want := []string{"city", "count", "urgent"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v", fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestSuggestedFieldsNonSetNeighbor(t *testing.T) {
	g := graphFromJSON(t, invoiceGraph)
	if fields := SuggestedFields(g, "Prep"); fields != nil {
		t.Errorf("fields = %v, want nil for a non-Set neighbor", fields)
	}
}

// memoryStore is an in-memory BodyStore for invoker tests.
type memoryStore struct {
	bodies map[string]map[string]any
	reads  int
	writes int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{bodies: make(map[string]map[string]any)}
}

func (m *memoryStore) LastBody(id string) (map[string]any, error) {
	m.reads++
	return m.bodies[id], nil
}

func (m *memoryStore) SaveBody(id string, body map[string]any) error {
	m.writes++
	m.bodies[id] = body
	return nil
}

func TestDefaultBodyPrefillsFromHistory(t *testing.T) {
	store := newMemoryStore()
	store.bodies["7"] = map[string]any{"customer": "acme", "stale": "x"}
	inv := &Invoker{History: store}

	body := inv.DefaultBody("7", []string{"customer", "amount"})
	if body["customer"] != "acme" {
		t.Errorf("customer = %v", body["customer"])
	}
	if body["amount"] != "" {
		t.Errorf("amount = %v, want empty placeholder", body["amount"])
	}
	if _, ok := body["stale"]; ok {
		t.Error("history key outside the suggested fields leaked in")
	}
}

func TestDefaultBodyNoSuggestionsUsesFullHistory(t *testing.T) {
	store := newMemoryStore()
	store.bodies["7"] = map[string]any{"anything": true}
	inv := &Invoker{History: store}

	body := inv.DefaultBody("7", nil)
	if body["anything"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestInvokePersistsBodyBeforeSend(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &received)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	store := newMemoryStore()
	inv := &Invoker{HTTPClient: srv.Client(), History: store}

	body := map[string]any{"customer": "acme"}
	result, err := inv.Invoke(context.Background(), "7", Target{Method: "POST", URL: srv.URL}, body)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if !result.OK() || result.Body != `{"ok":true}` {
		t.Errorf("result = %+v", result)
	}
	if received["customer"] != "acme" {
		t.Errorf("server received %v", received)
	}
	if store.writes != 1 {
		t.Errorf("history writes = %d, want 1", store.writes)
	}
}

func TestInvokeGETSkipsHistoryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			t.Error("GET request carried a body")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := newMemoryStore()
	inv := &Invoker{HTTPClient: srv.Client(), History: store}

	result, err := inv.Invoke(context.Background(), "7", Target{Method: "GET", URL: srv.URL},
		map[string]any{"ignored": true})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if result.Status != http.StatusNoContent {
		t.Errorf("status = %d", result.Status)
	}
	if store.writes != 0 || store.reads != 0 {
		t.Errorf("history touched on GET: reads=%d writes=%d", store.reads, store.writes)
	}
}

func TestInvokeReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusNotFound)
	}))
	defer srv.Close()

	inv := &Invoker{HTTPClient: srv.Client()}
	result, err := inv.Invoke(context.Background(), "7", Target{Method: "POST", URL: srv.URL},
		map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if result.OK() {
		t.Error("404 reported as OK")
	}
	if result.Body != "workflow not active" {
		t.Errorf("body = %q", result.Body)
	}
}
