package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePhases(); err != nil {
		return err
	}
	if err := c.validateRebuild(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		return errors.New("paths.processed_dir must be set to the ingestion success folder")
	}
	if strings.TrimSpace(c.Paths.FailedDir) == "" {
		return errors.New("paths.failed_dir must be set to the ingestion failure folder")
	}
	if c.Paths.ProcessedDir == c.Paths.FailedDir {
		return errors.New("paths.processed_dir and paths.failed_dir must be distinct folders")
	}
	return nil
}

func (c *Config) validatePhases() error {
	if len(c.Phases) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dripfeed/config.toml"
		}
		return fmt.Errorf("no phases configured; add at least one [phases.<name>] section to %s (create with 'dripfeed config init')", defaultPath)
	}
	for name, phase := range c.Phases {
		if strings.TrimSpace(name) == "" {
			return errors.New("phase names must not be empty")
		}
		if len(phase.SourceDirs) == 0 {
			return fmt.Errorf("phase %q: source_dirs must list at least one folder", name)
		}
		for _, dir := range phase.SourceDirs {
			if dir == c.Paths.StagingDir {
				return fmt.Errorf("phase %q: source dir %s collides with staging_dir", name, dir)
			}
		}
	}
	return nil
}

func (c *Config) validateRebuild() error {
	positive := map[string]int{
		"rebuild.poll_interval":      c.Rebuild.PollInterval,
		"rebuild.inactivity_timeout": c.Rebuild.InactivityTimeout,
	}
	for key, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if c.Rebuild.PollInterval >= c.Rebuild.InactivityTimeout {
		return errors.New("rebuild.poll_interval must be shorter than rebuild.inactivity_timeout")
	}
	nonNegative := map[string]int{
		"rebuild.restore_pause_ms":    c.Rebuild.RestorePauseMS,
		"rebuild.consolidation_pause": c.Rebuild.ConsolidationPause,
		"rebuild.min_free_space_gib":  c.Rebuild.MinFreeSpaceGiB,
	}
	for key, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
