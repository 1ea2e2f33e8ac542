package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/n8n-tools/n8nctl/internal/auth"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(auth.Credentials{URL: srv.URL, Key: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(auth.Credentials{URL: "http://x"}); err == nil {
		t.Error("NewClient without key should fail")
	}
	if _, err := NewClient(auth.Credentials{Key: "k"}); err == nil {
		t.Error("NewClient without URL should fail")
	}
}

func TestListWorkflowsEnvelope(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-N8N-API-KEY") != "test-key" {
			t.Errorf("missing API key header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type header")
		}
		_, _ = w.Write([]byte(`{"data": [{"id": "1", "name": "A", "active": true}]}`))
	})

	list, err := client.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows() error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "A" || !list[0].Active {
		t.Errorf("ListWorkflows() = %+v", list)
	}
}

func TestListWorkflowsBareArray(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "1", "name": "A"}, {"id": "2", "name": "B"}]`))
	})

	list, err := client.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows() error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}
}

func TestGetWorkflow(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workflows/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id": "42", "name": "Invoice Sync", "nodes": []}`))
	})

	doc, err := client.GetWorkflow("42")
	if err != nil {
		t.Fatalf("GetWorkflow() error: %v", err)
	}
	if doc.ID() != "42" || doc.Name() != "Invoice Sync" {
		t.Errorf("doc = %v", doc)
	}
}

func TestGetWorkflowKeepsOwnDataField(t *testing.T) {
	// Only listings come enveloped. A document with its own top-level
	// "data" field must survive untouched.
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "42", "name": "Invoice Sync", "data": {"rows": 3}}`))
	})

	doc, err := client.GetWorkflow("42")
	if err != nil {
		t.Fatalf("GetWorkflow() error: %v", err)
	}
	if doc.Name() != "Invoice Sync" {
		t.Errorf("name = %q", doc.Name())
	}
	data, ok := doc["data"].(map[string]any)
	if !ok || data["rows"] != float64(3) {
		t.Errorf("data field mangled: %v", doc["data"])
	}
}

func TestCreateWorkflowEchoesID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		var body workflow.Document
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "99"
		_ = json.NewEncoder(w).Encode(body)
	})

	created, err := client.CreateWorkflow(workflow.Document{"name": "New"})
	if err != nil {
		t.Fatalf("CreateWorkflow() error: %v", err)
	}
	if created.ID() != "99" {
		t.Errorf("created id = %q, want 99", created.ID())
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "workflow name already exists"}`))
	})

	_, err := client.GetWorkflow("1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if apiErr.Message != "workflow name already exists" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestDeleteWorkflow(t *testing.T) {
	var gotMethod, gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := client.DeleteWorkflow("7"); err != nil {
		t.Fatalf("DeleteWorkflow() error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/workflows/7" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}
