package config

import (
	"fmt"
	"strings"
)

// normalize expands every path field to an absolute path and trims phase
// entries so validation operates on canonical values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.ProcessedDir, err = expandPath(strings.TrimSpace(c.Paths.ProcessedDir)); err != nil {
		return err
	}
	if c.Paths.FailedDir, err = expandPath(strings.TrimSpace(c.Paths.FailedDir)); err != nil {
		return err
	}

	for name, phase := range c.Phases {
		dirs := make([]string, 0, len(phase.SourceDirs))
		for _, dir := range phase.SourceDirs {
			trimmed := strings.TrimSpace(dir)
			if trimmed == "" {
				continue
			}
			expanded, err := expandPath(trimmed)
			if err != nil {
				return fmt.Errorf("phase %q: %w", name, err)
			}
			dirs = append(dirs, expanded)
		}
		phase.SourceDirs = dirs
		c.Phases[name] = phase
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
