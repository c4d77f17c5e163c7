package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"dripfeed/internal/config"
	"dripfeed/internal/logging"
	"dripfeed/internal/manifest"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the run logger writing to stdout and the log dir.
func (c *commandContext) newLogger(runName string) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, runName+".log"),
		},
	})
}

// loadManifest opens the persisted manifest with a quiet logger, for
// inspection commands that should not emit log lines.
func (c *commandContext) loadManifest() (*manifest.Manifest, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return manifest.Load(cfg.ManifestPath(), logging.NewNop()), nil
}
