package queries

import (
	"encoding/json"
	"time"

	"github.com/dnsosebee/methodable-sub000/application/commands"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// GetDocumentQuery asks for the serialized graph of a document
type GetDocumentQuery struct {
	ID string
}

// Validate validates the GetDocumentQuery
func (q GetDocumentQuery) Validate() error {
	if q.ID == "" {
		return pkgerrors.NewInvalidArgument("documentId", "document ID is required")
	}
	return nil
}

// DocumentID implements bus.DocumentQuery
func (q GetDocumentQuery) DocumentID() string { return q.ID }

// GetDocumentResult carries a document in its storage encoding
type GetDocumentResult struct {
	ID            string          `json:"id"`
	RootContentID string          `json:"rootContentId"`
	OwnerID       string          `json:"ownerId"`
	Version       int             `json:"version"`
	Checksum      string          `json:"checksum"`
	Graph         json.RawMessage `json:"graph"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// GetOutlineQuery asks for the nested view of a document below Path. A
// MaxDepth of zero means unlimited.
type GetOutlineQuery struct {
	ID       string
	Path     string
	MaxDepth int
}

// Validate validates the GetOutlineQuery
func (q GetOutlineQuery) Validate() error {
	if q.ID == "" {
		return pkgerrors.NewInvalidArgument("documentId", "document ID is required")
	}
	if q.MaxDepth < 0 {
		return pkgerrors.NewInvalidArgument("depth", "depth cannot be negative")
	}
	_, err := commands.ParsePath(q.Path)
	return err
}

// DocumentID implements bus.DocumentQuery
func (q GetOutlineQuery) DocumentID() string { return q.ID }

// OutlineNode is one block of the nested outline view
type OutlineNode struct {
	Path           valueobjects.Path        `json:"path"`
	LocatedBlockID string                   `json:"locatedBlockId,omitempty"`
	ContentID      string                   `json:"contentId"`
	HumanText      string                   `json:"humanText"`
	Verb           string                   `json:"verb"`
	Status         valueobjects.BlockStatus `json:"status,omitempty"`
	// Locations counts every place this content is shown; above one the
	// block is transcluded.
	Locations int           `json:"locations"`
	Recursive bool          `json:"recursive,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Children  []OutlineNode `json:"children"`
}

// Neighbor directions
const (
	DirectionUp       = "up"
	DirectionDown     = "down"
	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

// GetNeighborQuery asks for the block displayed next to Path
type GetNeighborQuery struct {
	ID        string
	Path      string
	Direction string
}

// Validate validates the GetNeighborQuery
func (q GetNeighborQuery) Validate() error {
	if q.ID == "" {
		return pkgerrors.NewInvalidArgument("documentId", "document ID is required")
	}
	switch q.Direction {
	case DirectionUp, DirectionDown, DirectionNext, DirectionPrevious:
	default:
		return pkgerrors.NewInvalidArgument("direction", "direction must be one of up, down, next, previous")
	}
	_, err := commands.ParsePath(q.Path)
	return err
}

// DocumentID implements bus.DocumentQuery
func (q GetNeighborQuery) DocumentID() string { return q.ID }

// NeighborResult locates the neighboring block
type NeighborResult struct {
	Path      valueobjects.Path `json:"path"`
	ContentID string            `json:"contentId"`
	HumanText string            `json:"humanText"`
}

// CheckDocumentQuery asks for the consistency problems of a document
type CheckDocumentQuery struct {
	ID string
}

// Validate validates the CheckDocumentQuery
func (q CheckDocumentQuery) Validate() error {
	if q.ID == "" {
		return pkgerrors.NewInvalidArgument("documentId", "document ID is required")
	}
	return nil
}

// DocumentID implements bus.DocumentQuery
func (q CheckDocumentQuery) DocumentID() string { return q.ID }

// CheckDocumentResult lists consistency problems; empty means consistent
type CheckDocumentResult struct {
	Version  int      `json:"version"`
	Problems []string `json:"problems"`
}

// ListDocumentsQuery asks for the documents of an owner
type ListDocumentsQuery struct {
	OwnerID string
}

// Validate validates the ListDocumentsQuery
func (q ListDocumentsQuery) Validate() error { return nil }
