// Package sourcefile models the raw archive files released during a
// rebuild and the stable IDs embedded in their names.
package sourcefile

import (
	"regexp"
	"time"
)

// Stable IDs are uid- tokens embedded in filenames. Output artifacts carry
// the same token, which is what correlates an input to its outcome.
var idPattern = regexp.MustCompile(`uid-([A-Za-z0-9-]{4,})`)

// File is an immutable record for one discovered source file.
type File struct {
	Path        string
	OriginDir   string
	Name        string
	StableID    string
	ContentDate time.Time
}

// ParseStableID extracts the uid- token from a file or artifact name.
func ParseStableID(name string) (string, bool) {
	match := idPattern.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return match[1], true
}
