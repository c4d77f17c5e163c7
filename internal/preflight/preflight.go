// Package preflight verifies the run environment before any file moves.
// Staging I/O failures mid-run are fatal and unrecoverable, so the checks
// here surface misconfiguration while everything is still in place.
package preflight

import (
	"fmt"
	"strings"

	"dripfeed/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check applicable to the named phase.
func RunAll(cfg *config.Config, phase string) ([]Result, error) {
	sourceDirs, err := cfg.PhaseSourceDirs(phase)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, dir := range sourceDirs {
		results = append(results, CheckDirectoryAccess("Source folder", dir))
	}
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Processed folder", cfg.Paths.ProcessedDir))
	results = append(results, CheckDirectoryAccess("Failed folder", cfg.Paths.FailedDir))
	if cfg.Rebuild.MinFreeSpaceGiB > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.StagingDir, uint64(cfg.Rebuild.MinFreeSpaceGiB)))
	}
	return results, nil
}

// Failed filters the results down to checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// Summarize renders failed checks into one error message.
func Summarize(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, result := range failed {
		details = append(details, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
}
