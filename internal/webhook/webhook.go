// Package webhook discovers webhook entry points inside a workflow graph,
// derives suggested request bodies from the downstream node, and performs
// the invocation itself.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

const (
	triggerNodeType = "n8n-nodes-base.webhook"
	setNodeType     = "n8n-nodes-base.set"
)

// Mode selects the production or test endpoint of a webhook trigger.
type Mode string

const (
	ModeProduction Mode = "webhook"
	ModeTest       Mode = "webhook-test"
)

// EntryPoints returns the enabled webhook trigger nodes of a workflow.
// An empty result is a normal outcome, not an error.
func EntryPoints(g *workflow.Graph) []workflow.Node {
	var entries []workflow.Node
	for _, n := range g.Nodes {
		if n.Type == triggerNodeType && !n.Disabled {
			entries = append(entries, n)
		}
	}
	return entries
}

// Target is a fully resolved invocation endpoint.
type Target struct {
	Method string
	URL    string
}

// ResolveTarget builds the invocation URL for one entry node from its path
// and httpMethod parameters. The method defaults to GET when the node does
// not declare one.
func ResolveTarget(node *workflow.Node, uiBase string, mode Mode) Target {
	path := stringParam(node, "path")
	method := strings.ToUpper(stringParam(node, "httpMethod"))
	if method == "" {
		method = http.MethodGet
	}
	return Target{
		Method: method,
		URL: fmt.Sprintf("%s/%s/%s",
			strings.TrimRight(uiBase, "/"), mode, strings.TrimPrefix(path, "/")),
	}
}

func stringParam(node *workflow.Node, key string) string {
	if node.Parameters == nil {
		return ""
	}
	s, _ := node.Parameters[key].(string)
	return s
}

// setParams covers the historical parameter shapes of the Set node: the
// structured assignments object (whose entry list appears under "value" in
// value-assignment mode and "assignments" in newer versions) and the older
// per-type value buckets.
type setParams struct {
	Assignments struct {
		Value       []namedEntry `json:"value"`
		Assignments []namedEntry `json:"assignments"`
	} `json:"assignments"`
	Values struct {
		String  []namedEntry `json:"string"`
		Number  []namedEntry `json:"number"`
		Boolean []namedEntry `json:"boolean"`
	} `json:"values"`
}

type namedEntry struct {
	Name string `json:"name"`
}

// SuggestedFields walks from the entry node to its first downstream neighbor
// and, when that neighbor is a Set node, returns the field names it assigns.
// These make good request-body keys because the workflow clearly expects
// them as input.
func SuggestedFields(g *workflow.Graph, entryName string) []string {
	next := g.NextNode(entryName)
	if next == nil || next.Type != setNodeType {
		return nil
	}
	return SetFields(next)
}

// SetFields extracts the assigned field names from a Set node's parameters.
func SetFields(node *workflow.Node) []string {
	data, err := json.Marshal(node.Parameters)
	if err != nil {
		return nil
	}
	var params setParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil
	}

	var fields []string
	add := func(entries []namedEntry) {
		for _, e := range entries {
			if e.Name != "" {
				fields = append(fields, e.Name)
			}
		}
	}
	add(params.Assignments.Value)
	add(params.Assignments.Assignments)
	add(params.Values.String)
	add(params.Values.Number)
	add(params.Values.Boolean)
	return fields
}

// BodyStore persists the last request body used per workflow.
type BodyStore interface {
	LastBody(workflowID string) (map[string]any, error)
	SaveBody(workflowID string, body map[string]any) error
}

// Invoker performs webhook calls and keeps per-workflow invocation history.
type Invoker struct {
	HTTPClient *http.Client
	History    BodyStore // optional
}

// NewInvoker returns an Invoker with a bounded request timeout.
func NewInvoker(history BodyStore) *Invoker {
	return &Invoker{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		History:    history,
	}
}

// DefaultBody builds the initial request body for a workflow: the suggested
// field names, pre-filled with values from the last invocation when history
// holds one.
func (inv *Invoker) DefaultBody(workflowID string, fields []string) map[string]any {
	body := make(map[string]any, len(fields))
	for _, f := range fields {
		body[f] = ""
	}

	if inv.History == nil {
		return body
	}
	last, err := inv.History.LastBody(workflowID)
	if err != nil || last == nil {
		return body
	}
	if len(fields) == 0 {
		return last
	}
	for f := range body {
		if v, ok := last[f]; ok {
			body[f] = v
		}
	}
	return body
}

// Result is the outcome of one webhook call.
type Result struct {
	Status     int
	StatusText string
	Body       string
}

// OK reports whether the call got a 2xx response.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Invoke issues the webhook call. For non-GET methods the body is persisted
// to history before the request goes out, so a retry after an edit always
// resends what was last saved. GET requests carry no body and never touch
// history.
func (inv *Invoker) Invoke(ctx context.Context, workflowID string, target Target, body map[string]any) (Result, error) {
	var payload io.Reader
	if target.Method != http.MethodGet && body != nil {
		if inv.History != nil {
			if err := inv.History.SaveBody(workflowID, body); err != nil {
				return Result{}, fmt.Errorf("save invocation history: %w", err)
			}
		}
		data, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, payload)
	if err != nil {
		return Result{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := inv.HTTPClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Body:       strings.TrimSpace(string(respBody)),
	}, nil
}
