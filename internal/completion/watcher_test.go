package completion_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dripfeed/internal/completion"
	"dripfeed/internal/logging"
	"dripfeed/internal/manifest"
	"dripfeed/internal/sourcefile"
	"dripfeed/internal/testsupport"
)

func newManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	man := manifest.Load(filepath.Join(t.TempDir(), "manifest.json"), logging.NewNop())
	if err := man.SetPhase("notes"); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	return man
}

func batchOf(ids ...string) []sourcefile.File {
	files := make([]sourcefile.File, 0, len(ids))
	for _, id := range ids {
		files = append(files, sourcefile.File{
			Name:     "2024-01-01_entry_uid-" + id + ".md",
			StableID: id,
		})
	}
	return files
}

func TestWaitForDateResolvesMixedOutcomes(t *testing.T) {
	man := newManifest(t)
	processed := t.TempDir()
	failed := t.TempDir()
	batch := batchOf("aaaa", "bbbb", "cccc")
	if err := man.AddTargets("aaaa", "bbbb", "cccc"); err != nil {
		t.Fatalf("add targets: %v", err)
	}

	watcher := completion.NewWatcher(man, processed, failed,
		10*time.Millisecond, 5*time.Second, logging.NewNop())

	// Artifacts trickle in while the watcher polls, as real workers would.
	go func() {
		time.Sleep(30 * time.Millisecond)
		testsupport.WriteArtifact(t, processed, "aaaa")
		time.Sleep(30 * time.Millisecond)
		testsupport.WriteArtifact(t, failed, "bbbb")
		time.Sleep(30 * time.Millisecond)
		testsupport.WriteArtifact(t, processed, "cccc")
	}()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := watcher.WaitForDate(context.Background(), batch, day); err != nil {
		t.Fatalf("WaitForDate: %v", err)
	}
	for _, id := range []string{"aaaa", "bbbb", "cccc"} {
		if !man.IsComplete(id) {
			t.Errorf("%s not marked complete", id)
		}
	}
	if man.IsFailed("aaaa") || !man.IsFailed("bbbb") || man.IsFailed("cccc") {
		t.Error("failure status recorded on the wrong IDs")
	}
}

func TestWaitForDateReturnsImmediatelyWhenBatchAlreadyComplete(t *testing.T) {
	man := newManifest(t)
	if err := man.AddTargets("aaaa"); err != nil {
		t.Fatalf("add targets: %v", err)
	}
	if err := man.MarkComplete("aaaa", manifest.StatusSucceeded); err != nil {
		t.Fatalf("mark complete: %v", err)
	}

	// Folders that do not exist would fail a scan; an already-complete
	// batch must not scan at all.
	watcher := completion.NewWatcher(man, "/nonexistent/processed", "/nonexistent/failed",
		10*time.Millisecond, time.Second, logging.NewNop())
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := watcher.WaitForDate(context.Background(), batchOf("aaaa"), day); err != nil {
		t.Fatalf("WaitForDate: %v", err)
	}
}

func TestWaitForDateTimeoutNamesPendingFiles(t *testing.T) {
	man := newManifest(t)
	processed := t.TempDir()
	failedDir := t.TempDir()
	if err := man.AddTargets("aaaa", "bbbb"); err != nil {
		t.Fatalf("add targets: %v", err)
	}

	// One artifact exists up front, the other never arrives.
	testsupport.WriteArtifact(t, processed, "aaaa")
	watcher := completion.NewWatcher(man, processed, failedDir,
		5*time.Millisecond, 50*time.Millisecond, logging.NewNop())

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := watcher.WaitForDate(context.Background(), batchOf("aaaa", "bbbb"), day)
	var timeout *completion.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("WaitForDate error = %v, want TimeoutError", err)
	}
	if len(timeout.PendingFiles) != 1 || timeout.PendingFiles[0] != "2024-01-01_entry_uid-bbbb.md" {
		t.Fatalf("PendingFiles = %v, want the unresolved file", timeout.PendingFiles)
	}
	if timeout.Day != "2024-01-01" {
		t.Fatalf("Day = %q", timeout.Day)
	}
	if len(timeout.ProcessedListing.Artifacts) != 1 {
		t.Fatalf("ProcessedListing = %+v, want the one artifact", timeout.ProcessedListing)
	}
	if !man.IsComplete("aaaa") {
		t.Error("resolved ID lost on timeout")
	}
	if man.IsComplete("bbbb") {
		t.Error("pending ID marked complete on timeout")
	}
}

func TestWaitForDateHonorsContextCancellation(t *testing.T) {
	man := newManifest(t)
	if err := man.AddTargets("aaaa"); err != nil {
		t.Fatalf("add targets: %v", err)
	}
	watcher := completion.NewWatcher(man, t.TempDir(), t.TempDir(),
		10*time.Millisecond, time.Minute, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := watcher.WaitForDate(ctx, batchOf("aaaa"), day)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitForDate error = %v, want context.Canceled", err)
	}
}

func TestScanIgnoresUnrelatedArtifacts(t *testing.T) {
	man := newManifest(t)
	processed := t.TempDir()
	failedDir := t.TempDir()
	if err := man.AddTargets("aaaa"); err != nil {
		t.Fatalf("add targets: %v", err)
	}

	// Artifacts without a stable ID, or for IDs outside the batch, must
	// not flip anything in the manifest.
	testsupport.WriteFile(t, filepath.Join(processed, "README.txt"), []byte("x"))
	testsupport.WriteArtifact(t, processed, "zzzz")
	testsupport.WriteArtifact(t, processed, "aaaa")

	watcher := completion.NewWatcher(man, processed, failedDir,
		5*time.Millisecond, time.Second, logging.NewNop())
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := watcher.WaitForDate(context.Background(), batchOf("aaaa"), day); err != nil {
		t.Fatalf("WaitForDate: %v", err)
	}
	if man.IsComplete("zzzz") {
		t.Error("out-of-batch ID marked complete")
	}
}
