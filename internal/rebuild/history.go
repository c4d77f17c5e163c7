package rebuild

import (
	"context"
	"errors"
	"log/slog"

	"dripfeed/internal/ledger"
	"dripfeed/internal/logging"
)

// History recording is supplemental: a ledger write failure must never
// stop a rebuild, so every helper here downgrades errors to warnings.

func (m *Manager) beginHistory(ctx context.Context, logger *slog.Logger, runID, phase string, datesTotal int) {
	if m.history == nil {
		return
	}
	if err := m.history.BeginRun(ctx, runID, phase, datesTotal); err != nil {
		logger.Warn("failed to record run start", logging.Error(err))
	}
}

func (m *Manager) recordRelease(ctx context.Context, logger *slog.Logger, runID, day string, size int) int64 {
	if m.history == nil {
		return 0
	}
	batchID, err := m.history.ReleaseBatch(ctx, runID, day, size)
	if err != nil {
		logger.Warn("failed to record batch release", logging.Error(err))
		return 0
	}
	return batchID
}

func (m *Manager) recordResolution(ctx context.Context, logger *slog.Logger, batchID int64, succeeded, failed int) {
	if m.history == nil || batchID == 0 {
		return
	}
	if err := m.history.ResolveBatch(ctx, batchID, succeeded, failed); err != nil {
		logger.Warn("failed to record batch resolution", logging.Error(err))
	}
}

func (m *Manager) finishHistory(ctx context.Context, logger *slog.Logger, runID string, stats *runStats, runErr error) {
	if m.history == nil {
		return
	}
	outcome := ledger.OutcomeCompleted
	switch {
	case errors.Is(runErr, context.Canceled):
		outcome = ledger.OutcomeCanceled
	case runErr != nil:
		outcome = ledger.OutcomeFailed
	}
	// The run context may already be canceled when we get here; the final
	// history row should still be written.
	ctx = context.WithoutCancel(ctx)
	if err := m.history.FinishRun(ctx, runID, outcome, stats.datesDone, stats.filesSucceeded, stats.filesFailed, runErr); err != nil {
		logger.Warn("failed to record run finish", logging.Error(err))
	}
}
