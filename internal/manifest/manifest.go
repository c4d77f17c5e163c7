package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dripfeed/internal/logging"
)

// state is the on-disk representation. Plain JSON so an operator can
// inspect or edit it by hand in emergencies.
type state struct {
	Phase        string   `json:"phase"`
	TargetIDs    []string `json:"target_ids"`
	CompletedIDs []string `json:"completed_ids"`
	FailedIDs    []string `json:"failed_ids"`
}

// Manifest tracks the current phase, this run's target IDs, and the IDs
// ever completed or failed. Completion is permanent across phases.
type Manifest struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	phase     string
	targets   map[string]struct{}
	completed map[string]struct{}
	failed    map[string]struct{}
}

// Load reads the manifest at path. A missing or corrupt file degrades to
// empty defaults with a warning; corruption is never fatal.
func Load(path string, logger *slog.Logger) *Manifest {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manifest{
		path:      path,
		logger:    logging.WithComponent(logger, "manifest"),
		targets:   make(map[string]struct{}),
		completed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("failed to read manifest; starting empty",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "previously completed IDs may be reprocessed"),
			)
		}
		return m
	}
	if len(data) == 0 {
		return m
	}

	var persisted state
	if err := json.Unmarshal(data, &persisted); err != nil {
		m.logger.Warn("manifest is corrupt; starting empty",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or delete the file before the next run"),
			logging.String(logging.FieldImpact, "previously completed IDs may be reprocessed"),
		)
		return m
	}

	m.phase = persisted.Phase
	for _, id := range persisted.TargetIDs {
		if id = strings.TrimSpace(id); id != "" {
			m.targets[id] = struct{}{}
		}
	}
	for _, id := range persisted.CompletedIDs {
		if id = strings.TrimSpace(id); id != "" {
			m.completed[id] = struct{}{}
		}
	}
	for _, id := range persisted.FailedIDs {
		if id = strings.TrimSpace(id); id != "" {
			// failed_ids is a subset of completed_ids; repair by hand-edits.
			m.failed[id] = struct{}{}
			m.completed[id] = struct{}{}
		}
	}
	return m
}

// Path returns the on-disk location backing the manifest.
func (m *Manifest) Path() string {
	return m.path
}

// Phase returns the phase recorded by the most recent run.
func (m *Manifest) Phase() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// SetPhase records the phase for this run. Changing phase clears the
// target set but never the completed or failed sets.
func (m *Manifest) SetPhase(phase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == phase {
		return nil
	}
	m.phase = phase
	m.targets = make(map[string]struct{})
	return m.save()
}

// AddTargets unions the provided IDs into this run's target set. IDs that
// are already present are a no-op, which is what makes re-discovery after
// a crash safe.
func (m *Manifest) AddTargets(ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := false
	for _, id := range ids {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if _, ok := m.targets[id]; !ok {
			m.targets[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.save()
}

// MarkComplete records a terminal outcome for one ID. The insert is
// idempotent; a failed outcome is also recorded in the failed set.
func (m *Manifest) MarkComplete(id string, status Status) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("stable ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, wasCompleted := m.completed[id]
	m.completed[id] = struct{}{}
	changed := !wasCompleted

	switch status {
	case StatusSucceeded:
	case StatusFailed:
		if _, ok := m.failed[id]; !ok {
			m.failed[id] = struct{}{}
			changed = true
		}
	default:
		return fmt.Errorf("unknown completion status %v", status)
	}

	if !changed {
		return nil
	}
	return m.save()
}

// IsComplete reports whether the ID has ever been resolved.
func (m *Manifest) IsComplete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.completed[id]
	return ok
}

// IsFailed reports whether the ID was resolved as a worker failure.
func (m *Manifest) IsFailed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.failed[id]
	return ok
}

// PendingIDs returns the targets not yet resolved, sorted.
func (m *Manifest) PendingIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := make([]string, 0, len(m.targets))
	for id := range m.targets {
		if _, done := m.completed[id]; !done {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)
	return pending
}

// Counts returns the target, completed, and failed set sizes.
func (m *Manifest) Counts() (targets, completed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.targets), len(m.completed), len(m.failed)
}

// Snapshot returns a copy of the persisted state for display.
func (m *Manifest) Snapshot() (phase string, targetIDs, completedIDs, failedIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase, sortedKeys(m.targets), sortedKeys(m.completed), sortedKeys(m.failed)
}

// Clear resets the manifest to empty defaults and persists the result.
// Emergency use only.
func (m *Manifest) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = ""
	m.targets = make(map[string]struct{})
	m.completed = make(map[string]struct{})
	m.failed = make(map[string]struct{})
	return m.save()
}

// save writes the manifest atomically, fully overwriting the previous
// contents. Callers hold m.mu.
func (m *Manifest) save() error {
	persisted := state{
		Phase:        m.phase,
		TargetIDs:    sortedKeys(m.targets),
		CompletedIDs: sortedKeys(m.completed),
		FailedIDs:    sortedKeys(m.failed),
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp manifest: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
