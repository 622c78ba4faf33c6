package valueobjects

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type focusKind int

const (
	focusOffset focusKind = iota
	focusStart
	focusEnd
)

// FocusPosition is where the text cursor lands inside a block: a rune offset,
// or one of the start/end sentinels.
type FocusPosition struct {
	kind   focusKind
	offset int
}

// FocusStart places the cursor before the first character
func FocusStart() FocusPosition { return FocusPosition{kind: focusStart} }

// FocusEnd places the cursor after the last character
func FocusEnd() FocusPosition { return FocusPosition{kind: focusEnd} }

// FocusAt places the cursor at a rune offset
func FocusAt(offset int) FocusPosition {
	if offset < 0 {
		offset = 0
	}
	return FocusPosition{kind: focusOffset, offset: offset}
}

// ParseFocusPosition reads "start", "end" or a non-negative integer
func ParseFocusPosition(s string) (FocusPosition, error) {
	switch s {
	case "", "start":
		return FocusStart(), nil
	case "end":
		return FocusEnd(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return FocusPosition{}, fmt.Errorf("invalid focus position %q", s)
	}
	return FocusAt(n), nil
}

func (f FocusPosition) IsStart() bool { return f.kind == focusStart }
func (f FocusPosition) IsEnd() bool   { return f.kind == focusEnd }

// Offset returns the rune offset and whether the position is an offset at all
func (f FocusPosition) Offset() (int, bool) {
	return f.offset, f.kind == focusOffset
}

func (f FocusPosition) String() string {
	switch f.kind {
	case focusStart:
		return "start"
	case focusEnd:
		return "end"
	default:
		return strconv.Itoa(f.offset)
	}
}

// MarshalJSON writes the sentinels as strings and offsets as numbers
func (f FocusPosition) MarshalJSON() ([]byte, error) {
	if f.kind == focusOffset {
		return json.Marshal(f.offset)
	}
	return json.Marshal(f.String())
}

// Focus is the cursor placement an editor operation asks the UI to apply
type Focus struct {
	Path     Path          `json:"path"`
	Position FocusPosition `json:"position"`
}

// NewFocus pairs a path with a position
func NewFocus(path Path, position FocusPosition) *Focus {
	return &Focus{Path: NewPath(path...), Position: position}
}
