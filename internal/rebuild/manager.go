package rebuild

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"dripfeed/internal/completion"
	"dripfeed/internal/config"
	"dripfeed/internal/ledger"
	"dripfeed/internal/logging"
	"dripfeed/internal/manifest"
	"dripfeed/internal/staging"
)

// ConsolidateFunc runs between released days so downstream processing can
// settle before the next day's data is introduced.
type ConsolidateFunc func(ctx context.Context, day time.Time) error

// Manager composes the manifest, staging manager, and completion watcher
// into one rebuild run. All collaborators are constructed by the caller
// and passed in; the manager holds no ambient global state.
type Manager struct {
	cfg     *config.Config
	man     *manifest.Manifest
	files   *staging.Manager
	watcher *completion.Watcher
	history *ledger.Store
	logger  *slog.Logger

	lock        *flock.Flock
	consolidate ConsolidateFunc
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithConsolidation replaces the default settle delay between days with a
// callback into an external consolidation step.
func WithConsolidation(fn ConsolidateFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.consolidate = fn
		}
	}
}

// NewManager constructs a rebuild manager. history may be nil to disable
// run-history recording.
func NewManager(cfg *config.Config, man *manifest.Manifest, files *staging.Manager, watcher *completion.Watcher, history *ledger.Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:     cfg,
		man:     man,
		files:   files,
		watcher: watcher,
		history: history,
		logger:  logging.WithComponent(logger, "rebuild"),
		lock:    flock.New(cfg.LockPath()),
	}
	m.consolidate = m.defaultConsolidation
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) defaultConsolidation(ctx context.Context, day time.Time) error {
	pause := m.cfg.ConsolidationPause()
	if pause <= 0 {
		return nil
	}
	m.logger.Info("consolidation pause",
		logging.String(logging.FieldDay, day.Format(time.DateOnly)),
		logging.Duration("pause", pause),
	)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pause):
		return nil
	}
}
