package reconcile

import (
	"fmt"
	"sync"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// fakeAPI records every call so tests can assert exactly which mutations
// were issued and in what order.
type fakeAPI struct {
	mu   sync.Mutex
	docs map[string]workflow.Document

	calls       []string // ordered log: "list", "get 7", "post", "put 7", "delete 7", "snapshot 7"
	nextID      int
	failGet     error
	failPut     error
	failPutOnce bool
}

func newFakeAPI(docs ...workflow.Document) *fakeAPI {
	f := &fakeAPI{docs: make(map[string]workflow.Document), nextID: 100}
	for _, d := range docs {
		f.docs[d.ID()] = d
	}
	return f
}

func (f *fakeAPI) log(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == prefix || len(c) > len(prefix) && c[:len(prefix)+1] == prefix+" " {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListWorkflows() ([]workflow.Summary, error) {
	f.log("list")
	var list []workflow.Summary
	for id, d := range f.docs {
		active, _ := d["active"].(bool)
		list = append(list, workflow.Summary{ID: id, Name: d.Name(), Active: active})
	}
	return list, nil
}

func (f *fakeAPI) GetWorkflow(id string) (workflow.Document, error) {
	f.log("get " + id)
	if f.failGet != nil {
		return nil, f.failGet
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("not found: %s", id)
	}
	return d, nil
}

func (f *fakeAPI) CreateWorkflow(doc workflow.Document) (workflow.Document, error) {
	f.log("post")
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	created := doc.WithName(doc.Name())
	created["id"] = id
	f.docs[id] = created
	return created, nil
}

func (f *fakeAPI) UpdateWorkflow(id string, doc workflow.Document) (workflow.Document, error) {
	f.log("put " + id)
	if f.failPut != nil {
		err := f.failPut
		if f.failPutOnce {
			f.failPut = nil
		}
		return nil, err
	}
	f.docs[id] = doc
	return doc, nil
}

func (f *fakeAPI) DeleteWorkflow(id string) error {
	f.log("delete " + id)
	delete(f.docs, id)
	return nil
}

// recordingSnapshot is a SnapshotFunc that logs into the fake's call log so
// ordering relative to mutations is assertable.
func recordingSnapshot(f *fakeAPI) SnapshotFunc {
	return func(id, name string, doc workflow.Document) (string, error) {
		f.log("snapshot " + id)
		return "/backups/" + id + ".json", nil
	}
}

func failingSnapshot(id, name string, doc workflow.Document) (string, error) {
	return "", fmt.Errorf("disk full")
}
