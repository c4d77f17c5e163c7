package rebuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dripfeed/internal/logging"
	"dripfeed/internal/preflight"
	"dripfeed/internal/sourcefile"
	"dripfeed/internal/staging"
)

type runStats struct {
	datesDone      int
	filesSucceeded int
	filesFailed    int
}

// Run executes one complete rebuild pass for the named phase.
//
// On any unrecoverable error the staging area is left untouched and the
// error is returned; a subsequent run resumes from the manifest and the
// persisted staging map without duplicating completed work.
func (m *Manager) Run(ctx context.Context, phase string) error {
	locked, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another dripfeed run is already active")
	}
	defer func() {
		_ = m.lock.Unlock()
	}()

	results, err := preflight.RunAll(m.cfg, phase)
	if err != nil {
		return err
	}
	if err := preflight.Summarize(results); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := m.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldPhase, phase),
	)
	logger.Info("rebuild run starting", logging.String(logging.FieldEventType, "run_start"))

	if err := m.man.SetPhase(phase); err != nil {
		return fmt.Errorf("set manifest phase: %w", err)
	}

	sourceDirs, err := m.cfg.PhaseSourceDirs(phase)
	if err != nil {
		return err
	}
	discovered, err := m.files.Discover(sourceDirs)
	if err != nil {
		return err
	}

	// Files still staged from an interrupted run are absent from the
	// origin folders, so discovery cannot see them. Adopt them from the
	// persisted staging map instead of losing them.
	record, err := m.files.LoadRecord()
	if err != nil {
		return err
	}
	all := m.adoptStaged(logger, discovered, record)

	groups := m.files.GroupByDate(all)
	dates := staging.SortedDates(groups)

	// Targets are registered before any file moves so pending counts stay
	// accurate even when staging fails halfway.
	ids := make([]string, 0, len(all))
	for _, file := range all {
		ids = append(ids, file.StableID)
	}
	if err := m.man.AddTargets(ids...); err != nil {
		return fmt.Errorf("add targets: %w", err)
	}

	toStage := m.selectForStaging(logger, groups, record)
	if err := m.files.Stage(toStage, record); err != nil {
		return err
	}

	logger.Info("release schedule ready",
		logging.Int("file_count", len(all)),
		logging.Int("date_count", len(dates)),
		logging.Int("staged_count", len(toStage)),
	)

	m.beginHistory(ctx, logger, runID, phase, len(dates))
	stats := &runStats{}
	runErr := m.releaseDates(ctx, logger, runID, stats, dates, groups, record)
	if runErr == nil {
		runErr = m.files.CleanupStaging()
	}
	m.finishHistory(ctx, logger, runID, stats, runErr)
	if runErr != nil {
		return runErr
	}

	logger.Info("rebuild run complete", logging.String(logging.FieldEventType, "run_complete"))
	return nil
}

// releaseDates walks the schedule ascending. A date is never released
// before the previous batch has fully resolved; the watcher's fatal
// timeout is what halts progression otherwise.
func (m *Manager) releaseDates(ctx context.Context, logger *slog.Logger, runID string, stats *runStats, dates []time.Time, groups map[time.Time][]sourcefile.File, record staging.Record) error {
	for i, date := range dates {
		batch := groups[date]
		day := date.Format(time.DateOnly)
		logger.Info("releasing day",
			logging.String(logging.FieldDay, day),
			logging.Int("batch_size", len(batch)),
			logging.String(logging.FieldEventType, "day_release"),
		)

		batchID := m.recordRelease(ctx, logger, runID, day, len(batch))

		if _, err := m.files.RestoreForDate(ctx, date, batch, record); err != nil {
			return err
		}
		if err := m.watcher.WaitForDate(ctx, batch, date); err != nil {
			return err
		}

		succeeded, failed := m.tallyBatch(batch)
		m.recordResolution(ctx, logger, batchID, succeeded, failed)
		stats.datesDone++
		stats.filesSucceeded += succeeded
		stats.filesFailed += failed

		logger.Info("day resolved",
			logging.String(logging.FieldDay, day),
			logging.Int("succeeded", succeeded),
			logging.Int("failed", failed),
			logging.String(logging.FieldEventType, "day_resolved"),
		)

		if i < len(dates)-1 {
			if err := m.consolidate(ctx, date); err != nil {
				return err
			}
		}
	}
	return nil
}

// adoptStaged merges files left in staging by a previous run into the
// discovered set.
func (m *Manager) adoptStaged(logger *slog.Logger, discovered []sourcefile.File, record staging.Record) []sourcefile.File {
	known := make(map[string]struct{}, len(discovered))
	for _, file := range discovered {
		known[file.Name] = struct{}{}
	}
	all := discovered
	for name, entry := range record {
		if _, ok := known[name]; ok {
			continue
		}
		id, ok := sourcefile.ParseStableID(name)
		if !ok {
			continue
		}
		all = append(all, sourcefile.File{
			Path:      entry.StagingPath,
			OriginDir: entry.OriginDir,
			Name:      name,
			StableID:  id,
		})
		logger.Info("adopted staged file from previous run",
			logging.String("file", name),
			logging.String(logging.FieldStableID, id),
		)
	}
	return all
}

// selectForStaging returns the scheduled files that still need to move
// into staging: not already staged and not already completed. Completed
// files never re-enter staging, which is what makes re-running a fully
// completed phase a no-op.
func (m *Manager) selectForStaging(logger *slog.Logger, groups map[time.Time][]sourcefile.File, record staging.Record) []sourcefile.File {
	var toStage []sourcefile.File
	for _, batch := range groups {
		for _, file := range batch {
			if _, staged := record[file.Name]; staged {
				continue
			}
			if m.man.IsComplete(file.StableID) {
				logger.Debug("not staging already-completed file",
					logging.String("file", file.Name),
					logging.String(logging.FieldStableID, file.StableID),
				)
				continue
			}
			toStage = append(toStage, file)
		}
	}
	return toStage
}

func (m *Manager) tallyBatch(batch []sourcefile.File) (succeeded, failed int) {
	for _, file := range batch {
		if m.man.IsFailed(file.StableID) {
			failed++
		} else if m.man.IsComplete(file.StableID) {
			succeeded++
		}
	}
	return succeeded, failed
}
