package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dripfeed/internal/contentdate"
	"dripfeed/internal/logging"
	"dripfeed/internal/sourcefile"
)

// Discover scans the phase's source folders for regular, non-hidden files
// carrying a parseable stable ID. Files without one are skipped and
// logged, never fatal. A folder that cannot be read is fatal.
func (m *Manager) Discover(sourceDirs []string) ([]sourcefile.File, error) {
	var files []sourcefile.File
	for _, dir := range sourceDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: read source folder %s: %w", ErrIO, dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
				continue
			}
			id, ok := sourcefile.ParseStableID(name)
			if !ok {
				m.logger.Warn("skipping file without stable ID",
					logging.String("file", filepath.Join(dir, name)),
					logging.String(logging.FieldEventType, "discover_skip"),
					logging.String(logging.FieldErrorHint, "rename the file with a uid- token to include it"),
				)
				continue
			}
			files = append(files, sourcefile.File{
				Path:      filepath.Join(dir, name),
				OriginDir: dir,
				Name:      name,
				StableID:  id,
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GroupByDate keys files by content date via the date collaborator. Files
// whose date cannot be derived are dropped from scheduling: a conscious
// skip, logged as an error, never a crash.
func (m *Manager) GroupByDate(files []sourcefile.File) map[time.Time][]sourcefile.File {
	groups := make(map[time.Time][]sourcefile.File)
	for _, file := range files {
		date, err := m.extractor.ExtractDate(file.Path)
		if err != nil {
			m.logger.Error("excluding file with underivable content date",
				logging.String("file", file.Path),
				logging.String(logging.FieldStableID, file.StableID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file will not be released by this run"),
			)
			continue
		}
		day := contentdate.Day(date)
		file.ContentDate = day
		groups[day] = append(groups[day], file)
	}
	return groups
}

// SortedDates returns the group keys ascending. This ordering is the
// authoritative release schedule.
func SortedDates(groups map[time.Time][]sourcefile.File) []time.Time {
	dates := make([]time.Time, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
