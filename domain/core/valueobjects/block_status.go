package valueobjects

import "fmt"

// BlockStatus records guide progress for one placement of a block
type BlockStatus string

const (
	StatusNotStarted BlockStatus = "not_started"
	StatusInProgress BlockStatus = "in_progress"
	StatusComplete   BlockStatus = "complete"
)

// ParseBlockStatus validates a status string. Empty input means not started,
// which is what documents written before statuses existed contain.
func ParseBlockStatus(s string) (BlockStatus, error) {
	switch BlockStatus(s) {
	case "", StatusNotStarted:
		return StatusNotStarted, nil
	case StatusInProgress, StatusComplete:
		return BlockStatus(s), nil
	default:
		return "", fmt.Errorf("unknown block status %q", s)
	}
}
