package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dripfeed/internal/fileutil"
	"dripfeed/internal/logging"
	"dripfeed/internal/sourcefile"
)

// RestoreForDate puts one day's files back into their watched folders.
//
// Each file is copied (not moved) from staging to its origin, the staging
// copy is deleted, and the restored file's modification time is refreshed.
// The file-watch mechanism downstream only fires creation events reliably
// for paths that appear inside the watched directory, so a rename
// originating in the staging tree can be missed; the pause between files
// keeps bursts from coalescing watch events.
func (m *Manager) RestoreForDate(ctx context.Context, date time.Time, files []sourcefile.File, record Record) (int, error) {
	restored := 0
	for _, file := range files {
		entry, ok := record[file.Name]
		if !ok {
			// Not staged: either never staged or already restored.
			continue
		}
		if restored > 0 && m.pause > 0 {
			select {
			case <-ctx.Done():
				return restored, ctx.Err()
			case <-time.After(m.pause):
			}
		}
		dst := filepath.Join(entry.OriginDir, file.Name)
		if err := fileutil.CopyFile(entry.StagingPath, dst); err != nil {
			return restored, fmt.Errorf("%w: restore %s: %w", ErrIO, file.Name, err)
		}
		if err := os.Remove(entry.StagingPath); err != nil {
			return restored, fmt.Errorf("%w: remove staging copy of %s: %w", ErrIO, file.Name, err)
		}
		now := time.Now()
		if err := os.Chtimes(dst, now, now); err != nil {
			return restored, fmt.Errorf("%w: refresh mtime of %s: %w", ErrIO, dst, err)
		}
		delete(record, file.Name)
		if err := m.saveRecord(record); err != nil {
			return restored, err
		}
		restored++
		m.logger.Debug("restored file",
			logging.String("file", file.Name),
			logging.String(logging.FieldStableID, file.StableID),
			logging.String(logging.FieldDay, date.Format(time.DateOnly)),
		)
	}
	return restored, nil
}

// RestoreAll unconditionally moves every staged file back to its origin.
// Used for full-phase abort and cleanup, where release ordering no longer
// matters.
func (m *Manager) RestoreAll(record Record) error {
	for name, entry := range record {
		dst := filepath.Join(entry.OriginDir, name)
		if err := fileutil.MoveFile(entry.StagingPath, dst); err != nil {
			return fmt.Errorf("%w: restore %s: %w", ErrIO, name, err)
		}
		delete(record, name)
		if err := m.saveRecord(record); err != nil {
			return err
		}
	}
	return nil
}
