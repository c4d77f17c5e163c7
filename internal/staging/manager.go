package staging

import (
	"errors"
	"log/slog"
	"time"

	"dripfeed/internal/contentdate"
	"dripfeed/internal/logging"
)

// ErrIO marks filesystem failures during staging or restore. These are
// fatal to the run: they point at environment or configuration problems
// that retrying cannot fix.
var ErrIO = errors.New("staging io error")

// Manager stages and restores source files for one rebuild run.
type Manager struct {
	root      string
	pause     time.Duration
	extractor contentdate.Extractor
	logger    *slog.Logger
}

// NewManager constructs a staging manager rooted at root. pause separates
// successive restores within one day.
func NewManager(root string, pause time.Duration, extractor contentdate.Extractor, logger *slog.Logger) *Manager {
	if extractor == nil {
		extractor = contentdate.FilenameExtractor{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		root:      root,
		pause:     pause,
		extractor: extractor,
		logger:    logging.WithComponent(logger, "staging"),
	}
}

// Root returns the staging root directory.
func (m *Manager) Root() string {
	return m.root
}
