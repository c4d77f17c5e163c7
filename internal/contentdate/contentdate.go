// Package contentdate resolves the calendar date most representative of a
// source file's subject matter. The Extractor interface is the boundary to
// the date-extraction collaborator; the default implementation reads the
// date out of the filename.
package contentdate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Extractor derives a content date from a file path, or reports an
// explicit failure. Files whose date cannot be derived are excluded from
// scheduling by the caller.
type Extractor interface {
	ExtractDate(path string) (time.Time, error)
}

// datePattern matches ISO (2006-01-02), underscore (2006_01_02), and
// compact (20060102) date prefixes anywhere in the filename.
var datePattern = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

// FilenameExtractor is the default date collaborator. Archive collectors
// name their output with the capture date, so the filename is
// authoritative for scheduling.
type FilenameExtractor struct{}

// ExtractDate returns the first plausible calendar date found in the
// file's base name, normalized to midnight UTC.
func (FilenameExtractor) ExtractDate(path string) (time.Time, error) {
	name := filepath.Base(path)
	for _, match := range datePattern.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		if date, ok := validDate(year, month, day); ok {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("no content date in filename %q", name)
}

func validDate(year, month, day int) (time.Time, bool) {
	if year < 1970 || year > 2200 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject anything that moved.
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
