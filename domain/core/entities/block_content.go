package entities

import (
	"sort"

	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
)

// BlockContent is the text/verb payload of a block, independent of where it is
// displayed. It owns the ordered list of its children and a back-index of
// every location currently displaying it.
//
// BlockContent values are immutable once built. The With* methods return
// modified copies, which is what lets a Graph share unchanged entities
// between versions.
type BlockContent struct {
	id                 valueobjects.BlockContentID
	humanText          string
	verb               valueobjects.Verb
	userID             string
	childLocatedBlocks []valueobjects.LocatedBlockID
	locatedBlocks      map[valueobjects.LocatedBlockID]struct{}
	archived           bool
}

// NewBlockContent creates content with no children and no locations yet
func NewBlockContent(id valueobjects.BlockContentID, humanText string, verb valueobjects.Verb, userID string) *BlockContent {
	if verb == nil {
		verb = valueobjects.VerbDo
	}
	return &BlockContent{
		id:            id,
		humanText:     humanText,
		verb:          verb,
		userID:        userID,
		locatedBlocks: make(map[valueobjects.LocatedBlockID]struct{}),
	}
}

// ReconstructBlockContent rebuilds content from stored data. Children and
// locations are derived by the caller from the stored locations.
func ReconstructBlockContent(
	id valueobjects.BlockContentID,
	humanText string,
	verb valueobjects.Verb,
	userID string,
	children []valueobjects.LocatedBlockID,
	locations []valueobjects.LocatedBlockID,
	archived bool,
) *BlockContent {
	c := NewBlockContent(id, humanText, verb, userID)
	c.childLocatedBlocks = append([]valueobjects.LocatedBlockID(nil), children...)
	for _, l := range locations {
		c.locatedBlocks[l] = struct{}{}
	}
	c.archived = archived
	return c
}

func (c *BlockContent) ID() valueobjects.BlockContentID { return c.id }
func (c *BlockContent) HumanText() string              { return c.humanText }
func (c *BlockContent) Verb() valueobjects.Verb        { return c.verb }
func (c *BlockContent) UserID() string                 { return c.userID }
func (c *BlockContent) IsArchived() bool               { return c.archived }

// ChildLocatedBlocks returns a copy of the ordered child list
func (c *BlockContent) ChildLocatedBlocks() []valueobjects.LocatedBlockID {
	out := make([]valueobjects.LocatedBlockID, len(c.childLocatedBlocks))
	copy(out, c.childLocatedBlocks)
	return out
}

func (c *BlockContent) ChildCount() int   { return len(c.childLocatedBlocks) }
func (c *BlockContent) HasChildren() bool { return len(c.childLocatedBlocks) > 0 }

// FirstChild returns the leftmost child, or the zero id
func (c *BlockContent) FirstChild() valueobjects.LocatedBlockID {
	if len(c.childLocatedBlocks) == 0 {
		return valueobjects.LocatedBlockID{}
	}
	return c.childLocatedBlocks[0]
}

// LastChild returns the rightmost child, or the zero id
func (c *BlockContent) LastChild() valueobjects.LocatedBlockID {
	if len(c.childLocatedBlocks) == 0 {
		return valueobjects.LocatedBlockID{}
	}
	return c.childLocatedBlocks[len(c.childLocatedBlocks)-1]
}

// ChildIndex returns the position of a child, or -1
func (c *BlockContent) ChildIndex(id valueobjects.LocatedBlockID) int {
	for i, child := range c.childLocatedBlocks {
		if child.Equals(id) {
			return i
		}
	}
	return -1
}

// RightSiblingOf returns the child after id, or the zero id
func (c *BlockContent) RightSiblingOf(id valueobjects.LocatedBlockID) valueobjects.LocatedBlockID {
	i := c.ChildIndex(id)
	if i < 0 || i+1 >= len(c.childLocatedBlocks) {
		return valueobjects.LocatedBlockID{}
	}
	return c.childLocatedBlocks[i+1]
}

// LocatedBlocks returns the locations displaying this content, sorted by id
func (c *BlockContent) LocatedBlocks() []valueobjects.LocatedBlockID {
	out := make([]valueobjects.LocatedBlockID, 0, len(c.locatedBlocks))
	for id := range c.locatedBlocks {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (c *BlockContent) LocationCount() int { return len(c.locatedBlocks) }

func (c *BlockContent) HasLocation(id valueobjects.LocatedBlockID) bool {
	_, ok := c.locatedBlocks[id]
	return ok
}

// IsTranscluded reports whether the content is displayed in more than one place
func (c *BlockContent) IsTranscluded() bool { return len(c.locatedBlocks) > 1 }

func (c *BlockContent) clone() *BlockContent {
	out := *c
	return &out
}

// WithHumanText returns a copy with new text
func (c *BlockContent) WithHumanText(text string) *BlockContent {
	out := c.clone()
	out.humanText = text
	return out
}

// WithVerb returns a copy with a new verb
func (c *BlockContent) WithVerb(verb valueobjects.Verb) *BlockContent {
	out := c.clone()
	out.verb = verb
	return out
}

// WithChildInsertedAt returns a copy with id inserted at index i
func (c *BlockContent) WithChildInsertedAt(i int, id valueobjects.LocatedBlockID) *BlockContent {
	if i < 0 {
		i = 0
	}
	if i > len(c.childLocatedBlocks) {
		i = len(c.childLocatedBlocks)
	}
	children := make([]valueobjects.LocatedBlockID, 0, len(c.childLocatedBlocks)+1)
	children = append(children, c.childLocatedBlocks[:i]...)
	children = append(children, id)
	children = append(children, c.childLocatedBlocks[i:]...)

	out := c.clone()
	out.childLocatedBlocks = children
	return out
}

// WithChildRemoved returns a copy without id in the child list
func (c *BlockContent) WithChildRemoved(id valueobjects.LocatedBlockID) *BlockContent {
	children := make([]valueobjects.LocatedBlockID, 0, len(c.childLocatedBlocks))
	for _, child := range c.childLocatedBlocks {
		if !child.Equals(id) {
			children = append(children, child)
		}
	}
	out := c.clone()
	out.childLocatedBlocks = children
	return out
}

// WithLocationAdded returns a copy that records one more location
func (c *BlockContent) WithLocationAdded(id valueobjects.LocatedBlockID) *BlockContent {
	out := c.clone()
	out.locatedBlocks = c.copyLocations()
	out.locatedBlocks[id] = struct{}{}
	return out
}

// WithLocationRemoved returns a copy that no longer records id
func (c *BlockContent) WithLocationRemoved(id valueobjects.LocatedBlockID) *BlockContent {
	out := c.clone()
	out.locatedBlocks = c.copyLocations()
	delete(out.locatedBlocks, id)
	return out
}

func (c *BlockContent) copyLocations() map[valueobjects.LocatedBlockID]struct{} {
	m := make(map[valueobjects.LocatedBlockID]struct{}, len(c.locatedBlocks)+1)
	for id := range c.locatedBlocks {
		m[id] = struct{}{}
	}
	return m
}

// Equal compares every field, including child order and the location set
func (c *BlockContent) Equal(other *BlockContent) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !c.id.Equals(other.id) || c.humanText != other.humanText || c.userID != other.userID ||
		c.archived != other.archived || c.verb.Name() != other.verb.Name() {
		return false
	}
	if len(c.childLocatedBlocks) != len(other.childLocatedBlocks) || len(c.locatedBlocks) != len(other.locatedBlocks) {
		return false
	}
	for i := range c.childLocatedBlocks {
		if !c.childLocatedBlocks[i].Equals(other.childLocatedBlocks[i]) {
			return false
		}
	}
	for id := range c.locatedBlocks {
		if !other.HasLocation(id) {
			return false
		}
	}
	return true
}
