package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"dripfeed/internal/fileutil"
	"dripfeed/internal/logging"
	"dripfeed/internal/sourcefile"
)

// Stage moves every file out of its origin folder into the staging root,
// mirrored per origin-folder name, and records the reversible mapping.
// The map is persisted after every move so a crash mid-staging stays
// recoverable. Any individual move failure is fatal to the run.
func (m *Manager) Stage(files []sourcefile.File, record Record) error {
	for _, file := range files {
		dstDir := filepath.Join(m.root, filepath.Base(file.OriginDir))
		dst := filepath.Join(dstDir, file.Name)
		if err := fileutil.MoveFile(file.Path, dst); err != nil {
			return fmt.Errorf("%w: stage %s: %w", ErrIO, file.Path, err)
		}
		record[file.Name] = Entry{StagingPath: dst, OriginDir: file.OriginDir}
		if err := m.saveRecord(record); err != nil {
			return err
		}
		m.logger.Debug("staged file",
			logging.String("file", file.Name),
			logging.String(logging.FieldStableID, file.StableID),
			logging.String("staging_path", dst),
		)
	}
	m.logger.Info("staging complete",
		logging.Int("file_count", len(files)),
		logging.String("staging_root", m.root),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return nil
}

// CleanupStaging deletes the staging root entirely. Called only once a
// phase is confirmed fully drained.
func (m *Manager) CleanupStaging() error {
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("%w: remove staging root %s: %w", ErrIO, m.root, err)
	}
	m.logger.Info("staging root removed", logging.String("staging_root", m.root))
	return nil
}
