package reconcile

import (
	"context"
	"fmt"

	"github.com/n8n-tools/n8nctl/internal/backup"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// fallbackName is used when neither the caller nor the source document
// provides a workflow name.
const fallbackName = "Imported workflow"

// WorkflowAPI is the remote surface the reconciler drives. *api.Client
// satisfies it; tests substitute a fake.
type WorkflowAPI interface {
	ListWorkflows() ([]workflow.Summary, error)
	GetWorkflow(id string) (workflow.Document, error)
	CreateWorkflow(doc workflow.Document) (workflow.Document, error)
	UpdateWorkflow(id string, doc workflow.Document) (workflow.Document, error)
	DeleteWorkflow(id string) error
}

// SnapshotFunc captures a pre-mutation backup. Defaults to backup.Snapshot.
type SnapshotFunc func(id, name string, doc workflow.Document) (string, error)

// Reconciler performs import/export/delete/edit operations against one
// remote collection.
type Reconciler struct {
	API      WorkflowAPI
	Snapshot SnapshotFunc
}

// New returns a Reconciler with the default backup store wired in.
func New(api WorkflowAPI) *Reconciler {
	return &Reconciler{API: api, Snapshot: backup.Snapshot}
}

// Action describes what an import did, or would do under dry-run.
type Action string

const (
	ActionCreated     Action = "created"
	ActionUpdated     Action = "updated"
	ActionWouldCreate Action = "would-create"
	ActionWouldUpdate Action = "would-update"
)

// Mutating reports whether the action issued a remote write.
func (a Action) Mutating() bool {
	return a == ActionCreated || a == ActionUpdated
}

// ImportOptions controls one import.
type ImportOptions struct {
	// Name overrides the document's own name. Precedence: Name > embedded
	// name > "Imported workflow".
	Name   string
	Upsert bool
	DryRun bool
	// Clean applies the normalizer before upload. On by default at the
	// command layer; explicit here.
	Clean bool
}

// ImportResult reports one reconciled document.
type ImportResult struct {
	Name       string
	ID         string
	Action     Action
	BackupPath string
}

// ImportOne reconciles a single sourced document against the remote
// collection. With Upsert, an existing workflow with the exact same name is
// updated (after a mandatory pre-update snapshot); otherwise a new one is
// created. Dry-run performs every read but no mutating call.
func (r *Reconciler) ImportOne(ctx context.Context, doc workflow.Document, opts ImportOptions) (ImportResult, error) {
	name := opts.Name
	if name == "" {
		name = doc.Name()
	}
	if name == "" {
		name = fallbackName
	}

	doc = doc.WithName(name)
	if opts.Clean {
		doc = workflow.Clean(doc)
	}

	result := ImportResult{Name: name}

	if opts.Upsert {
		existing, err := r.findByName(name)
		if err != nil {
			return result, err
		}
		if existing != nil {
			return r.update(existing.ID, doc, opts, result)
		}
	}

	if opts.DryRun {
		result.Action = ActionWouldCreate
		return result, nil
	}

	created, err := r.API.CreateWorkflow(doc)
	if err != nil {
		return result, err
	}
	result.Action = ActionCreated
	result.ID = created.ID()
	return result, nil
}

func (r *Reconciler) update(id string, doc workflow.Document, opts ImportOptions, result ImportResult) (ImportResult, error) {
	full, err := r.API.GetWorkflow(id)
	if err != nil {
		return result, err
	}

	// Fail closed: no snapshot, no update.
	backupPath, err := r.Snapshot(id, full.Name(), full)
	if err != nil {
		return result, fmt.Errorf("backup before update failed, aborting: %w", err)
	}
	result.BackupPath = backupPath
	result.ID = id

	if opts.DryRun {
		result.Action = ActionWouldUpdate
		return result, nil
	}

	if _, err := r.API.UpdateWorkflow(id, doc); err != nil {
		return result, err
	}
	result.Action = ActionUpdated
	return result, nil
}

// findByName looks up a workflow whose name matches exactly, case-sensitive.
// No fuzzy matching: upsert must never guess.
func (r *Reconciler) findByName(name string) (*workflow.Summary, error) {
	list, err := r.API.ListWorkflows()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, nil
}

// BundleItem is the per-entry outcome of a bundle import.
type BundleItem struct {
	File   string
	Result ImportResult
	Err    error
}

// ImportBundle reconciles every JSON entry of a zip archive, strictly
// sequentially. One entry's failure is recorded and does not abort the rest.
func (r *Reconciler) ImportBundle(ctx context.Context, zipPath string, opts ImportOptions) ([]BundleItem, error) {
	entries, err := ExtractBundle(zipPath)
	if err != nil {
		return nil, err
	}

	items := make([]BundleItem, 0, len(entries))
	for _, entry := range entries {
		item := BundleItem{File: entry.Name}
		if entry.Err != nil {
			item.Err = entry.Err
			items = append(items, item)
			continue
		}

		// The explicit name override only makes sense for one document;
		// bundle entries keep their embedded names.
		entryOpts := opts
		entryOpts.Name = ""

		item.Result, item.Err = r.ImportOne(ctx, entry.Doc, entryOpts)
		items = append(items, item)
	}
	return items, nil
}
