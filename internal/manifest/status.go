package manifest

import "fmt"

// Status is the terminal outcome a worker reported for one stable ID.
type Status int

const (
	// StatusSucceeded means an artifact for the ID appeared in the
	// processed folder.
	StatusSucceeded Status = iota
	// StatusFailed means the input was rejected into the failure folder.
	// Failed IDs still count as resolved so a day can close.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
