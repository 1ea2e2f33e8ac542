package reconcile

import (
	"fmt"
	"testing"
)

func TestDeleteRequiresSelector(t *testing.T) {
	r := &Reconciler{API: newFakeAPI()}
	if _, err := r.Delete(DeleteOptions{}); err == nil {
		t.Error("delete without any selector should fail before any remote call")
	}
}

func TestDeleteBackupBeforeDelete(t *testing.T) {
	fake := newFakeAPI(remoteDoc("42", "X"))
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	results, err := r.Delete(DeleteOptions{ID: "42"})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(results) != 1 || !results[0].Deleted {
		t.Fatalf("results = %+v", results)
	}
	if results[0].BackupPath == "" {
		t.Error("no backup recorded")
	}

	snapIdx, delIdx := -1, -1
	for i, c := range fake.calls {
		switch c {
		case "snapshot 42":
			snapIdx = i
		case "delete 42":
			delIdx = i
		}
	}
	if snapIdx == -1 || delIdx == -1 || snapIdx > delIdx {
		t.Errorf("snapshot does not precede delete: %v", fake.calls)
	}
}

func TestDeleteSnapshotFailureAborts(t *testing.T) {
	fake := newFakeAPI(remoteDoc("42", "X"))
	r := &Reconciler{API: fake, Snapshot: failingSnapshot}

	results, err := r.Delete(DeleteOptions{ID: "42"})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if results[0].Err == nil {
		t.Error("expected per-target error for failed snapshot")
	}
	if fake.count("delete") != 0 {
		t.Error("DELETE issued despite failed snapshot")
	}
}

func TestDeleteDryRun(t *testing.T) {
	fake := newFakeAPI(remoteDoc("42", "X"))
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	results, err := r.Delete(DeleteOptions{ID: "42", DryRun: true})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if results[0].Deleted {
		t.Error("dry-run marked workflow deleted")
	}
	if fake.count("delete") != 0 {
		t.Error("dry-run issued a DELETE")
	}
	if results[0].BackupPath == "" {
		t.Error("dry-run should still report the would-be backup")
	}
}

func TestDeleteSelectors(t *testing.T) {
	fake := newFakeAPI(
		remoteDoc("1", "Invoice Sync"),
		remoteDoc("2", "invoice archive"),
		remoteDoc("3", "Daily Report"),
	)
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	results, err := r.Delete(DeleteOptions{Name: "Invoice Sync", DryRun: true})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Errorf("exact name match results = %+v", results)
	}

	results, err = r.Delete(DeleteOptions{Search: "invoice", DryRun: true})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("substring match results = %+v", results)
	}
}

func TestEditPatchesAndBacksUp(t *testing.T) {
	fake := newFakeAPI(remoteDoc("7", "Old Name"))
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	name := "New Name"
	active := true
	result, err := r.Edit(EditOptions{ID: "7", Name: &name, Active: &active})
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if !result.Updated || result.BackupPath == "" {
		t.Errorf("result = %+v", result)
	}

	updated := fake.docs["7"]
	if updated.Name() != "New Name" {
		t.Errorf("name = %q", updated.Name())
	}
	if updated["active"] != true {
		t.Errorf("active = %v", updated["active"])
	}

	snapIdx, putIdx := -1, -1
	for i, c := range fake.calls {
		switch c {
		case "snapshot 7":
			snapIdx = i
		case "put 7":
			putIdx = i
		}
	}
	if snapIdx == -1 || putIdx == -1 || snapIdx > putIdx {
		t.Errorf("snapshot does not precede update: %v", fake.calls)
	}
}

func TestEditValidation(t *testing.T) {
	r := &Reconciler{API: newFakeAPI(remoteDoc("7", "X"))}

	if _, err := r.Edit(EditOptions{ID: "7"}); err == nil {
		t.Error("edit without any patch field should fail")
	}
	name := "x"
	if _, err := r.Edit(EditOptions{Name: &name}); err == nil {
		t.Error("edit without id should fail")
	}
}

func TestEditDryRun(t *testing.T) {
	fake := newFakeAPI(remoteDoc("7", "Old"))
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	name := "New"
	result, err := r.Edit(EditOptions{ID: "7", Name: &name, DryRun: true})
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if result.Updated {
		t.Error("dry-run marked workflow updated")
	}
	if fake.count("put") != 0 {
		t.Error("dry-run issued a PUT")
	}
}

func TestEditSnapshotFailureAborts(t *testing.T) {
	fake := newFakeAPI(remoteDoc("7", "Old"))
	r := &Reconciler{API: fake, Snapshot: failingSnapshot}

	name := "New"
	if _, err := r.Edit(EditOptions{ID: "7", Name: &name}); err == nil {
		t.Error("expected error when snapshot fails")
	}
	if fake.count("put") != 0 {
		t.Error("PUT issued despite failed snapshot")
	}
}

func TestEditCompatRetryDropsActive(t *testing.T) {
	fake := newFakeAPI(remoteDoc("7", "Old"))
	fake.failPut = fmt.Errorf("active is read-only")
	fake.failPutOnce = true
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	active := true
	result, err := r.Edit(EditOptions{ID: "7", Active: &active, CompatRetry: true})
	if err != nil {
		t.Fatalf("Edit() with compat retry error: %v", err)
	}
	if !result.RetriedNoActive {
		t.Error("RetriedNoActive not reported")
	}
	if fake.count("put") != 2 {
		t.Errorf("PUT count = %d, want 2", fake.count("put"))
	}
	if _, ok := fake.docs["7"]["active"]; ok {
		t.Error("retry payload still contains active")
	}
}

func TestEditNoCompatRetryByDefault(t *testing.T) {
	fake := newFakeAPI(remoteDoc("7", "Old"))
	fake.failPut = fmt.Errorf("boom")
	r := &Reconciler{API: fake, Snapshot: recordingSnapshot(fake)}

	active := true
	if _, err := r.Edit(EditOptions{ID: "7", Active: &active}); err == nil {
		t.Error("expected the update failure to surface")
	}
	if fake.count("put") != 1 {
		t.Errorf("PUT count = %d, want 1 (no retry)", fake.count("put"))
	}
}
