package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir     string `toml:"state_dir"`
	StagingDir   string `toml:"staging_dir"`
	LogDir       string `toml:"log_dir"`
	ProcessedDir string `toml:"processed_dir"`
	FailedDir    string `toml:"failed_dir"`
}

// Phase names the watched source folders released during one rebuild pass.
type Phase struct {
	SourceDirs []string `toml:"source_dirs"`
}

// Rebuild contains timing and pacing knobs for a rebuild run.
type Rebuild struct {
	PollInterval       int `toml:"poll_interval"`
	InactivityTimeout  int `toml:"inactivity_timeout"`
	RestorePauseMS     int `toml:"restore_pause_ms"`
	ConsolidationPause int `toml:"consolidation_pause"`
	MinFreeSpaceGiB    int `toml:"min_free_space_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dripfeed.
type Config struct {
	Paths   Paths            `toml:"paths"`
	Phases  map[string]Phase `toml:"phases"`
	Rebuild Rebuild          `toml:"rebuild"`
	Logging Logging          `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dripfeed/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dripfeed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories dripfeed itself owns. Source and
// outbox directories belong to the ingestion system and are verified by
// preflight instead of created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ManifestPath returns the location of the persisted rebuild manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.StateDir, "manifest.json")
}

// LedgerPath returns the location of the run-history database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "dripfeed.lock")
}

// PhaseNames returns the configured phase names sorted alphabetically.
func (c *Config) PhaseNames() []string {
	names := make([]string, 0, len(c.Phases))
	for name := range c.Phases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PhaseSourceDirs returns the source folders in scope for the named phase.
func (c *Config) PhaseSourceDirs(phase string) ([]string, error) {
	p, ok := c.Phases[phase]
	if !ok {
		return nil, fmt.Errorf("unknown phase %q (configured: %s)", phase, strings.Join(c.PhaseNames(), ", "))
	}
	return append([]string{}, p.SourceDirs...), nil
}

// PollInterval returns the outbox polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Rebuild.PollInterval) * time.Second
}

// InactivityTimeout returns the completion-watcher inactivity window.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.Rebuild.InactivityTimeout) * time.Second
}

// RestorePause returns the pause between successive file restores.
func (c *Config) RestorePause() time.Duration {
	return time.Duration(c.Rebuild.RestorePauseMS) * time.Millisecond
}

// ConsolidationPause returns the settle delay between released days.
func (c *Config) ConsolidationPause() time.Duration {
	return time.Duration(c.Rebuild.ConsolidationPause) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
