// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dripfeed/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per
// test. One phase named "notes" is preconfigured with a single source
// folder; every referenced directory already exists on disk.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		StateDir:     filepath.Join(base, "state"),
		StagingDir:   filepath.Join(base, "staging"),
		LogDir:       filepath.Join(base, "logs"),
		ProcessedDir: filepath.Join(base, "outbox", "processed"),
		FailedDir:    filepath.Join(base, "outbox", "failed"),
	}
	cfgVal.Phases = map[string]config.Phase{
		"notes": {SourceDirs: []string{filepath.Join(base, "inbox", "notes")}},
	}
	cfgVal.Rebuild.PollInterval = 1
	cfgVal.Rebuild.InactivityTimeout = 5
	cfgVal.Rebuild.RestorePauseMS = 0
	cfgVal.Rebuild.ConsolidationPause = 0
	cfgVal.Rebuild.MinFreeSpaceGiB = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	mustMkdirAll(t, cfgVal.Paths.StateDir, cfgVal.Paths.StagingDir, cfgVal.Paths.LogDir,
		cfgVal.Paths.ProcessedDir, cfgVal.Paths.FailedDir)
	for _, phase := range cfgVal.Phases {
		mustMkdirAll(t, phase.SourceDirs...)
	}

	return builder.cfg
}

// WithPhase adds (or replaces) a phase whose source folders live under
// the test's base directory.
func WithPhase(name string, dirNames ...string) ConfigOption {
	return func(b *configBuilder) {
		dirs := make([]string, 0, len(dirNames))
		for _, dirName := range dirNames {
			dirs = append(dirs, filepath.Join(b.baseDir, "inbox", dirName))
		}
		b.cfg.Phases[name] = config.Phase{SourceDirs: dirs}
	}
}

// WithInactivityTimeout overrides the watcher inactivity window (seconds).
func WithInactivityTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rebuild.InactivityTimeout = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func mustMkdirAll(t testing.TB, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
}
