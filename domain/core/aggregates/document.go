package aggregates

import (
	"fmt"
	"time"

	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
)

// Document is a named outline: a graph together with the content shown at
// its top and an optimistic version counter. Like Graph it is a value; use
// WithGraph to produce the next revision.
type Document struct {
	id            string
	rootContentID valueobjects.BlockContentID
	ownerID       string
	graph         *Graph
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewDocument creates the first revision of a document
func NewDocument(id string, rootContentID valueobjects.BlockContentID, ownerID string, graph *Graph, now time.Time) *Document {
	return &Document{
		id:            id,
		rootContentID: rootContentID,
		ownerID:       ownerID,
		graph:         graph,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructDocument rebuilds a document from storage
func ReconstructDocument(
	id string,
	rootContentID valueobjects.BlockContentID,
	ownerID string,
	graph *Graph,
	version int,
	createdAt, updatedAt time.Time,
) *Document {
	return &Document{
		id:            id,
		rootContentID: rootContentID,
		ownerID:       ownerID,
		graph:         graph,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (d *Document) ID() string                                { return d.id }
func (d *Document) RootContentID() valueobjects.BlockContentID { return d.rootContentID }
func (d *Document) OwnerID() string                           { return d.ownerID }
func (d *Document) Graph() *Graph                             { return d.graph }
func (d *Document) Version() int                              { return d.version }
func (d *Document) CreatedAt() time.Time                      { return d.createdAt }

// Revision names this revision of this document. A document deleted and
// created again under the same id gets a fresh root content, so its
// revisions never repeat the old ones.
func (d *Document) Revision() string {
	return fmt.Sprintf("%s@%d", d.rootContentID, d.version)
}
func (d *Document) UpdatedAt() time.Time                      { return d.updatedAt }

// WithGraph returns the next revision holding graph
func (d *Document) WithGraph(graph *Graph, now time.Time) *Document {
	next := *d
	next.graph = graph
	next.version = d.version + 1
	next.updatedAt = now
	return &next
}
