package completion

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Artifact describes one file observed in an output folder, captured for
// the diagnostic dump of a timeout.
type Artifact struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Listing is the snapshot of one output folder at the moment of a timeout.
type Listing struct {
	Dir       string
	Artifacts []Artifact
	Err       error
}

// TimeoutError is the fatal hard stop raised when a batch stalls. It
// names every still-pending filename and carries listings of both output
// folders so an operator can act without reading logs.
type TimeoutError struct {
	Day              string
	Inactivity       time.Duration
	PendingFiles     []string
	ProcessedListing Listing
	FailedListing    Listing
}

func (e *TimeoutError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "completion timeout for %s: no new artifact for %s; still pending: %s",
		e.Day, e.Inactivity, strings.Join(e.PendingFiles, ", "))
	return b.String()
}

func listDir(dir string) Listing {
	listing := Listing{Dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		listing.Err = err
		return listing
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		listing.Artifacts = append(listing.Artifacts, Artifact{
			Name:    filepath.Base(entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(listing.Artifacts, func(i, j int) bool {
		return listing.Artifacts[i].ModTime.After(listing.Artifacts[j].ModTime)
	})
	return listing
}
