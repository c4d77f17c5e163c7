// Package completion resolves released stable IDs to success or failure
// by observing the ingestion system's output folders.
//
// Detection is purely observational: there is no handle on the worker
// processes, only the filesystem side effects they leave behind. That
// keeps the watcher agnostic to worker count and technology at the cost
// of polling latency.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"dripfeed/internal/logging"
	"dripfeed/internal/manifest"
	"dripfeed/internal/sourcefile"
)

// Watcher polls the processed and failed folders until every released ID
// of a batch is resolved in the manifest.
type Watcher struct {
	man          *manifest.Manifest
	processedDir string
	failedDir    string
	pollInterval time.Duration
	inactivity   time.Duration
	logger       *slog.Logger
}

// NewWatcher constructs a completion watcher over the two outbox folders.
func NewWatcher(man *manifest.Manifest, processedDir, failedDir string, pollInterval, inactivity time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		man:          man,
		processedDir: processedDir,
		failedDir:    failedDir,
		pollInterval: pollInterval,
		inactivity:   inactivity,
		logger:       logging.WithComponent(logger, "completion"),
	}
}

// WaitForDate blocks until every ID in the batch is resolved or the
// inactivity window elapses without any new artifact. Worker-reported
// failures count as resolved; only silence is fatal, because an
// unresolved batch must never let the next date be released.
func (w *Watcher) WaitForDate(ctx context.Context, batch []sourcefile.File, date time.Time) error {
	pending := make(map[string]string, len(batch))
	for _, file := range batch {
		if !w.man.IsComplete(file.StableID) {
			pending[file.StableID] = file.Name
		}
	}
	if len(pending) == 0 {
		return nil
	}

	day := date.Format(time.DateOnly)
	w.logger.Info("waiting for batch completion",
		logging.String(logging.FieldDay, day),
		logging.Int("pending_count", len(pending)),
		logging.String(logging.FieldEventType, "wait_start"),
	)

	lastActivity := time.Now()
	for {
		resolved, err := w.scanOnce(pending, day)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			w.logger.Info("batch resolved",
				logging.String(logging.FieldDay, day),
				logging.String(logging.FieldEventType, "wait_done"),
			)
			return nil
		}
		if resolved > 0 {
			lastActivity = time.Now()
		}
		if time.Since(lastActivity) >= w.inactivity {
			return w.timeoutError(pending, day)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.pollInterval):
		}
	}
}

// scanOnce resolves any pending ID whose artifact has appeared in either
// output folder.
func (w *Watcher) scanOnce(pending map[string]string, day string) (int, error) {
	resolved := 0
	n, err := w.scanDir(w.processedDir, manifest.StatusSucceeded, pending, day)
	if err != nil {
		return resolved, err
	}
	resolved += n
	n, err = w.scanDir(w.failedDir, manifest.StatusFailed, pending, day)
	if err != nil {
		return resolved, err
	}
	return resolved + n, nil
}

func (w *Watcher) scanDir(dir string, status manifest.Status, pending map[string]string, day string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read output folder %s: %w", dir, err)
	}
	resolved := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		id, ok := sourcefile.ParseStableID(entry.Name())
		if !ok {
			continue
		}
		filename, isPending := pending[id]
		if !isPending {
			continue
		}
		if err := w.man.MarkComplete(id, status); err != nil {
			return resolved, fmt.Errorf("record completion of %s: %w", id, err)
		}
		delete(pending, id)
		resolved++
		switch status {
		case manifest.StatusSucceeded:
			w.logger.Info("file processed",
				logging.String("file", filename),
				logging.String(logging.FieldStableID, id),
				logging.String(logging.FieldDay, day),
				logging.String("artifact", entry.Name()),
			)
		case manifest.StatusFailed:
			w.logger.Warn("worker rejected file",
				logging.String("file", filename),
				logging.String(logging.FieldStableID, id),
				logging.String(logging.FieldDay, day),
				logging.String("artifact", entry.Name()),
				logging.String(logging.FieldImpact, "recorded in failed_ids; batch still closes"),
			)
		}
	}
	return resolved, nil
}

func (w *Watcher) timeoutError(pending map[string]string, day string) error {
	names := make([]string, 0, len(pending))
	for _, filename := range pending {
		names = append(names, filename)
	}
	sort.Strings(names)

	err := &TimeoutError{
		Day:              day,
		Inactivity:       w.inactivity,
		PendingFiles:     names,
		ProcessedListing: listDir(w.processedDir),
		FailedListing:    listDir(w.failedDir),
	}
	w.logger.Error("no completion activity within inactivity window",
		logging.String(logging.FieldDay, day),
		logging.Duration("inactivity_timeout", w.inactivity),
		logging.Int("pending_count", len(names)),
		logging.String(logging.FieldErrorHint, "fix the stuck worker, edit the manifest, or re-run"),
	)
	return err
}
