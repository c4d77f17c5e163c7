package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dripfeed/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-1", "foundation", 2); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	batchID, err := store.ReleaseBatch(ctx, "run-1", "2024-01-01", 3)
	if err != nil {
		t.Fatalf("ReleaseBatch: %v", err)
	}
	if err := store.ResolveBatch(ctx, batchID, 2, 1); err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if _, err := store.ReleaseBatch(ctx, "run-1", "2024-01-02", 1); err != nil {
		t.Fatalf("ReleaseBatch: %v", err)
	}

	if err := store.FinishRun(ctx, "run-1", ledger.OutcomeFailed, 1, 2, 1,
		errors.New("no completion activity")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("RecentRuns returned %d rows, want 1", len(runs))
	}
	run := runs[0]
	if run.RunID != "run-1" || run.Phase != "foundation" {
		t.Fatalf("run identity = %q/%q", run.RunID, run.Phase)
	}
	if run.Outcome != ledger.OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", run.Outcome)
	}
	if run.DatesTotal != 2 || run.DatesDone != 1 {
		t.Fatalf("dates = %d/%d, want 1/2", run.DatesDone, run.DatesTotal)
	}
	if run.FilesSucceeded != 2 || run.FilesFailed != 1 {
		t.Fatalf("files = %d/%d", run.FilesSucceeded, run.FilesFailed)
	}
	if run.Error != "no completion activity" {
		t.Fatalf("Error = %q", run.Error)
	}
	if run.FinishedAt == nil || run.FinishedAt.Before(run.StartedAt) {
		t.Fatalf("FinishedAt = %v, StartedAt = %v", run.FinishedAt, run.StartedAt)
	}

	batches, err := store.BatchesForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("BatchesForRun: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("BatchesForRun returned %d rows, want 2", len(batches))
	}
	if batches[0].Day != "2024-01-01" || batches[1].Day != "2024-01-02" {
		t.Fatalf("batch order = %q, %q", batches[0].Day, batches[1].Day)
	}
	first := batches[0]
	if first.BatchSize != 3 || first.Succeeded != 2 || first.Failed != 1 {
		t.Fatalf("first batch = %+v", first)
	}
	if first.ResolvedAt == nil {
		t.Fatal("resolved batch has nil ResolvedAt")
	}
	if batches[1].ResolvedAt != nil {
		t.Fatal("unresolved batch has a ResolvedAt")
	}
}

func TestRecentRunsOrdersNewestFirstAndLimits(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.BeginRun(ctx, id, "notes", 0); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}
	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns returned %d rows, want 2", len(runs))
	}
	if runs[0].RunID != "run-c" || runs[1].RunID != "run-b" {
		t.Fatalf("order = %q, %q, want newest first", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].Outcome != ledger.OutcomeRunning {
		t.Fatalf("unfinished run outcome = %q, want running", runs[0].Outcome)
	}
}

func TestBatchesForUnknownRunIsEmpty(t *testing.T) {
	store := openStore(t)
	batches, err := store.BatchesForRun(context.Background(), "no-such-run")
	if err != nil {
		t.Fatalf("BatchesForRun: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("batches = %v, want none", batches)
	}
}
