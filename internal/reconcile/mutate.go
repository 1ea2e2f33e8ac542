package reconcile

import (
	"fmt"
	"strings"
)

// DeleteOptions selects deletion targets. Exactly one selector is required;
// refusing to run with none is what keeps a bare `delete` from matching the
// whole collection.
type DeleteOptions struct {
	ID     string
	Name   string // exact match
	Search string // case-insensitive substring match
	DryRun bool
}

// DeleteResult reports one deletion target.
type DeleteResult struct {
	ID         string
	Name       string
	BackupPath string
	Deleted    bool // false under dry-run or on error
	Err        error
}

// Delete removes matching workflows, snapshotting each full document before
// its DELETE goes out. A failed snapshot aborts that target's deletion.
// Per-target errors do not abort the rest.
func (r *Reconciler) Delete(opts DeleteOptions) ([]DeleteResult, error) {
	if opts.ID == "" && opts.Name == "" && opts.Search == "" {
		return nil, fmt.Errorf("nothing to delete: provide an id, --name, or --search")
	}

	list, err := r.API.ListWorkflows()
	if err != nil {
		return nil, err
	}

	var targets []struct{ id, name string }
	for _, w := range list {
		switch {
		case opts.ID != "":
			if w.ID == opts.ID {
				targets = append(targets, struct{ id, name string }{w.ID, w.Name})
			}
		case opts.Name != "":
			if w.Name == opts.Name {
				targets = append(targets, struct{ id, name string }{w.ID, w.Name})
			}
		default:
			if strings.Contains(strings.ToLower(w.Name), strings.ToLower(opts.Search)) {
				targets = append(targets, struct{ id, name string }{w.ID, w.Name})
			}
		}
	}

	results := make([]DeleteResult, 0, len(targets))
	for _, target := range targets {
		results = append(results, r.deleteOne(target.id, target.name, opts.DryRun))
	}
	return results, nil
}

func (r *Reconciler) deleteOne(id, name string, dryRun bool) DeleteResult {
	result := DeleteResult{ID: id, Name: name}

	full, err := r.API.GetWorkflow(id)
	if err != nil {
		result.Err = err
		return result
	}

	// Fail closed: no snapshot, no delete.
	backupPath, err := r.Snapshot(id, full.Name(), full)
	if err != nil {
		result.Err = fmt.Errorf("backup before delete failed, aborting: %w", err)
		return result
	}
	result.BackupPath = backupPath

	if dryRun {
		return result
	}

	if err := r.API.DeleteWorkflow(id); err != nil {
		result.Err = err
		return result
	}
	result.Deleted = true
	return result
}

// EditOptions patches top-level workflow fields.
type EditOptions struct {
	ID     string
	Name   *string
	Active *bool
	DryRun bool
	// CompatRetry retries a failed update once without the active field.
	// Some server versions reject it on PUT. Off by default.
	CompatRetry bool
}

// EditResult reports one edit.
type EditResult struct {
	ID              string
	BackupPath      string
	Updated         bool
	RetriedNoActive bool
}

// Edit fetches the full document, snapshots it, applies the patch and issues
// the update. The snapshot always precedes the PUT; its failure aborts the
// edit.
func (r *Reconciler) Edit(opts EditOptions) (EditResult, error) {
	result := EditResult{ID: opts.ID}

	if opts.ID == "" {
		return result, fmt.Errorf("missing workflow id")
	}
	if opts.Name == nil && opts.Active == nil {
		return result, fmt.Errorf("nothing to edit: provide --name or --active")
	}

	full, err := r.API.GetWorkflow(opts.ID)
	if err != nil {
		return result, err
	}

	backupPath, err := r.Snapshot(opts.ID, full.Name(), full)
	if err != nil {
		return result, fmt.Errorf("backup before edit failed, aborting: %w", err)
	}
	result.BackupPath = backupPath

	patched := make(map[string]any, len(full)+2)
	for k, v := range full {
		patched[k] = v
	}
	if opts.Name != nil {
		patched["name"] = *opts.Name
	}
	if opts.Active != nil {
		patched["active"] = *opts.Active
	}

	if opts.DryRun {
		return result, nil
	}

	if _, err := r.API.UpdateWorkflow(opts.ID, patched); err != nil {
		if !opts.CompatRetry {
			return result, err
		}
		delete(patched, "active")
		if _, retryErr := r.API.UpdateWorkflow(opts.ID, patched); retryErr != nil {
			return result, fmt.Errorf("update failed (%v), retry without active failed: %w", err, retryErr)
		}
		result.RetriedNoActive = true
	}

	result.Updated = true
	return result, nil
}
