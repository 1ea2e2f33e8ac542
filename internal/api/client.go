// Package api is a thin session client for the n8n public REST API.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/n8n-tools/n8nctl/internal/auth"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// apiKeyHeader is the authentication header n8n expects on every request.
const apiKeyHeader = "X-N8N-API-KEY"

// Client is bound to one resolved URL+key pair.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is a non-2xx response from the n8n server. The decoded server
// message is preserved so failures are never reported as a bare status code
// when the server said more.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("n8n API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("n8n API error (status %d)", e.Status)
}

// NewClient validates the credentials and returns a bound session.
func NewClient(creds auth.Credentials) (*Client, error) {
	if err := auth.Assert(creds); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(creds.URL, "/"),
		apiKey:  creds.Key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ListWorkflows returns the collection listing. Both response shapes the API
// has shipped are accepted: a bare array and a {"data": [...]} envelope.
func (c *Client) ListWorkflows() ([]workflow.Summary, error) {
	body, err := c.do(http.MethodGet, "/workflows", nil)
	if err != nil {
		return nil, err
	}

	raw, err := unwrapData(body)
	if err != nil {
		return nil, err
	}

	var list []workflow.Summary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse workflow listing: %w", err)
	}
	return list, nil
}

// GetWorkflow fetches one full workflow document.
func (c *Client) GetWorkflow(id string) (workflow.Document, error) {
	body, err := c.do(http.MethodGet, "/workflows/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// CreateWorkflow creates a workflow and returns the server's echo, including
// the assigned id.
func (c *Client) CreateWorkflow(doc workflow.Document) (workflow.Document, error) {
	body, err := c.do(http.MethodPost, "/workflows", doc)
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// UpdateWorkflow replaces a workflow document.
func (c *Client) UpdateWorkflow(id string, doc workflow.Document) (workflow.Document, error) {
	body, err := c.do(http.MethodPut, "/workflows/"+id, doc)
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// DeleteWorkflow removes a workflow.
func (c *Client) DeleteWorkflow(id string) error {
	_, err := c.do(http.MethodDelete, "/workflows/"+id, nil)
	return err
}

func (c *Client) do(method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: decodeErrorMessage(respBody),
			Body:    respBody,
		}
	}

	return respBody, nil
}

// unwrapData peels the optional {"data": ...} envelope off a listing
// response.
func unwrapData(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("parse response envelope: %w", err)
		}
		if envelope.Data != nil {
			return envelope.Data, nil
		}
	}
	return body, nil
}

// decodeDocument parses a single-document response as-is. Only the
// collection listing ever comes wrapped in a data envelope; a document may
// legitimately carry its own top-level "data" field.
func decodeDocument(body []byte) (workflow.Document, error) {
	var doc workflow.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse workflow document: %w", err)
	}
	return doc, nil
}

func decodeErrorMessage(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return strings.TrimSpace(string(body))
}
