package entities

import (
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
)

// LocatedBlock is one placement of a content: "content X is shown as a child
// of content Y, right of location Z". Siblings form a linked list through
// leftID; the parent's child list holds the same order.
type LocatedBlock struct {
	id          valueobjects.LocatedBlockID
	contentID   valueobjects.BlockContentID
	userID      string
	blockStatus valueobjects.BlockStatus
	parentID    valueobjects.BlockContentID
	leftID      valueobjects.LocatedBlockID
	archived    bool
}

// NewLocatedBlock creates a live placement. A zero parentID makes it a tree root.
func NewLocatedBlock(
	id valueobjects.LocatedBlockID,
	contentID valueobjects.BlockContentID,
	parentID valueobjects.BlockContentID,
	leftID valueobjects.LocatedBlockID,
	userID string,
) *LocatedBlock {
	return &LocatedBlock{
		id:          id,
		contentID:   contentID,
		userID:      userID,
		blockStatus: valueobjects.StatusNotStarted,
		parentID:    parentID,
		leftID:      leftID,
	}
}

// ReconstructLocatedBlock rebuilds a placement from stored data
func ReconstructLocatedBlock(
	id valueobjects.LocatedBlockID,
	contentID valueobjects.BlockContentID,
	parentID valueobjects.BlockContentID,
	leftID valueobjects.LocatedBlockID,
	userID string,
	status valueobjects.BlockStatus,
	archived bool,
) *LocatedBlock {
	l := NewLocatedBlock(id, contentID, parentID, leftID, userID)
	l.blockStatus = status
	l.archived = archived
	return l
}

func (l *LocatedBlock) ID() valueobjects.LocatedBlockID            { return l.id }
func (l *LocatedBlock) ContentID() valueobjects.BlockContentID     { return l.contentID }
func (l *LocatedBlock) UserID() string                             { return l.userID }
func (l *LocatedBlock) BlockStatus() valueobjects.BlockStatus      { return l.blockStatus }
func (l *LocatedBlock) ParentID() valueobjects.BlockContentID      { return l.parentID }
func (l *LocatedBlock) LeftID() valueobjects.LocatedBlockID        { return l.leftID }
func (l *LocatedBlock) IsArchived() bool                           { return l.archived }
func (l *LocatedBlock) IsRoot() bool                               { return l.parentID.IsZero() }
func (l *LocatedBlock) IsLeftmost() bool                           { return l.leftID.IsZero() }

func (l *LocatedBlock) clone() *LocatedBlock {
	out := *l
	return &out
}

// WithLeft returns a copy pointing at a new left sibling
func (l *LocatedBlock) WithLeft(leftID valueobjects.LocatedBlockID) *LocatedBlock {
	out := l.clone()
	out.leftID = leftID
	return out
}

// WithPosition returns a copy placed under a new parent and left sibling
func (l *LocatedBlock) WithPosition(parentID valueobjects.BlockContentID, leftID valueobjects.LocatedBlockID) *LocatedBlock {
	out := l.clone()
	out.parentID = parentID
	out.leftID = leftID
	return out
}

// WithContent returns a copy displaying different content
func (l *LocatedBlock) WithContent(contentID valueobjects.BlockContentID) *LocatedBlock {
	out := l.clone()
	out.contentID = contentID
	return out
}

// WithStatus returns a copy with a new guide status
func (l *LocatedBlock) WithStatus(status valueobjects.BlockStatus) *LocatedBlock {
	out := l.clone()
	out.blockStatus = status
	return out
}

// AsArchived returns an archived copy. Parent and left pointers are kept as a
// record of where the block last lived.
func (l *LocatedBlock) AsArchived() *LocatedBlock {
	out := l.clone()
	out.archived = true
	return out
}

// Equal compares every field
func (l *LocatedBlock) Equal(other *LocatedBlock) bool {
	if l == nil || other == nil {
		return l == other
	}
	return *l == *other
}
