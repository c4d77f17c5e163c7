package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const recordFileName = "staging-map.json"

// Entry records where one staged file came from and where it sits now.
type Entry struct {
	StagingPath string `json:"staging_path"`
	OriginDir   string `json:"origin_dir"`
}

// Record is the reversible filename → location mapping for every file
// currently relocated out of a watched folder.
type Record map[string]Entry

func (m *Manager) recordPath() string {
	return filepath.Join(m.root, recordFileName)
}

// LoadRecord reads the staging map left behind by a previous run. A
// missing file yields an empty record.
func (m *Manager) LoadRecord() (Record, error) {
	data, err := os.ReadFile(m.recordPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, nil
		}
		return nil, fmt.Errorf("%w: read staging map: %w", ErrIO, err)
	}
	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: parse staging map %s: %w", ErrIO, m.recordPath(), err)
	}
	return record, nil
}

// saveRecord writes the staging map atomically inside the staging root.
func (m *Manager) saveRecord(record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal staging map: %w", err)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("%w: create staging root: %w", ErrIO, err)
	}
	tmpPath := m.recordPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write staging map: %w", ErrIO, err)
	}
	if err := os.Rename(tmpPath, m.recordPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename staging map: %w", ErrIO, err)
	}
	return nil
}
