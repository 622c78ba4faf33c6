package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dnsosebee/methodable-sub000/application/commands"
	"github.com/dnsosebee/methodable-sub000/application/queries"
	"github.com/dnsosebee/methodable-sub000/application/queries/bus"
	appservices "github.com/dnsosebee/methodable-sub000/application/services"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/entities"
	"github.com/dnsosebee/methodable-sub000/domain/core/validators"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/services"
	"github.com/dnsosebee/methodable-sub000/domain/versioning"
	"go.uber.org/zap"
)

// DocumentQueryHandlers answers read-only questions about documents
type DocumentQueryHandlers struct {
	store     *appservices.DocumentStore
	validator *validators.GraphValidator
	logger    *zap.Logger
}

// NewDocumentQueryHandlers creates the query handler set
func NewDocumentQueryHandlers(store *appservices.DocumentStore, logger *zap.Logger) *DocumentQueryHandlers {
	return &DocumentQueryHandlers{
		store:     store,
		validator: validators.NewGraphValidator(),
		logger:    logger,
	}
}

// Register binds each query type to its handler
func (h *DocumentQueryHandlers) Register(b *bus.QueryBus) error {
	routes := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.GetDocumentQuery{}, h.handleGetDocument},
		{queries.GetOutlineQuery{}, h.handleGetOutline},
		{queries.GetNeighborQuery{}, h.handleGetNeighbor},
		{queries.CheckDocumentQuery{}, h.handleCheckDocument},
		{queries.ListDocumentsQuery{}, h.handleListDocuments},
	}
	for _, r := range routes {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *DocumentQueryHandlers) handleGetDocument(ctx context.Context, q bus.Query) (interface{}, error) {
	query := q.(queries.GetDocumentQuery)
	doc, err := h.store.Get(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	data, err := aggregates.Serialize(doc.Graph())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	checksum, err := versioning.Checksum(doc.Graph())
	if err != nil {
		return nil, err
	}
	return &queries.GetDocumentResult{
		ID:            doc.ID(),
		RootContentID: doc.RootContentID().String(),
		OwnerID:       doc.OwnerID(),
		Version:       doc.Version(),
		Checksum:      checksum,
		Graph:         json.RawMessage(data),
		CreatedAt:     doc.CreatedAt(),
		UpdatedAt:     doc.UpdatedAt(),
	}, nil
}

func (h *DocumentQueryHandlers) handleGetOutline(ctx context.Context, q bus.Query) (interface{}, error) {
	query := q.(queries.GetOutlineQuery)
	path, err := commands.ParsePath(query.Path)
	if err != nil {
		return nil, err
	}
	doc, err := h.store.Get(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	b := &outlineBuilder{
		g:        doc.Graph(),
		maxDepth: query.MaxDepth,
		open:     make(map[valueobjects.BlockContentID]bool),
	}
	chain, err := doc.Graph().ResolvePath(doc.RootContentID(), path)
	if err != nil {
		return nil, err
	}
	// Contents above the requested block are open on this branch too
	for _, c := range chain[:len(chain)-1] {
		b.open[c.ID()] = true
	}
	var located *entities.LocatedBlock
	if !path.IsRoot() {
		if located, err = doc.Graph().LocatedBlock(path.Last()); err != nil {
			return nil, err
		}
	}
	node, err := b.build(chain[len(chain)-1], located, path, 0)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

type outlineBuilder struct {
	g        *aggregates.Graph
	maxDepth int
	open     map[valueobjects.BlockContentID]bool
}

func (b *outlineBuilder) build(content *entities.BlockContent, located *entities.LocatedBlock, path valueobjects.Path, depth int) (queries.OutlineNode, error) {
	node := queries.OutlineNode{
		Path:      path,
		ContentID: content.ID().String(),
		HumanText: content.HumanText(),
		Verb:      content.Verb().Name(),
		Locations: content.LocationCount(),
		Children:  []queries.OutlineNode{},
	}
	if located != nil {
		node.LocatedBlockID = located.ID().String()
		node.Status = located.BlockStatus()
	}

	switch {
	case b.open[content.ID()]:
		node.Recursive = true
		return node, nil
	case b.maxDepth > 0 && depth >= b.maxDepth:
		node.Truncated = content.HasChildren()
		return node, nil
	}

	b.open[content.ID()] = true
	defer delete(b.open, content.ID())

	for _, childID := range content.ChildLocatedBlocks() {
		child, err := b.g.LocatedBlock(childID)
		if err != nil {
			return node, err
		}
		childContent, err := b.g.BlockContent(child.ContentID())
		if err != nil {
			return node, err
		}
		childNode, err := b.build(childContent, child, path.Child(childID), depth+1)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

func (h *DocumentQueryHandlers) handleGetNeighbor(ctx context.Context, q bus.Query) (interface{}, error) {
	query := q.(queries.GetNeighborQuery)
	path, err := commands.ParsePath(query.Path)
	if err != nil {
		return nil, err
	}
	doc, err := h.store.Get(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	g, root := doc.Graph(), doc.RootContentID()

	var neighbor valueobjects.Path
	switch query.Direction {
	case queries.DirectionUp:
		neighbor, err = services.UpstairsNeighbor(g, path)
	case queries.DirectionDown:
		neighbor, err = services.DownstairsNeighbor(g, root, path)
	case queries.DirectionNext:
		neighbor, err = services.NextGuideStep(g, root, path)
	case queries.DirectionPrevious:
		neighbor, err = services.PreviousGuideStep(g, root, path)
	}
	if err != nil {
		return nil, err
	}

	content, err := g.ContentAt(root, neighbor)
	if err != nil {
		return nil, err
	}
	return &queries.NeighborResult{
		Path:      neighbor,
		ContentID: content.ID().String(),
		HumanText: content.HumanText(),
	}, nil
}

func (h *DocumentQueryHandlers) handleCheckDocument(ctx context.Context, q bus.Query) (interface{}, error) {
	query := q.(queries.CheckDocumentQuery)
	doc, err := h.store.Get(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	problems := h.validator.Check(doc.Graph())
	if len(problems) > 0 {
		h.logger.Warn("Document has consistency problems",
			zap.String("document_id", query.ID),
			zap.Int("problems", len(problems)),
		)
	}
	return &queries.CheckDocumentResult{
		Version:  doc.Version(),
		Problems: append([]string{}, problems...),
	}, nil
}

func (h *DocumentQueryHandlers) handleListDocuments(ctx context.Context, q bus.Query) (interface{}, error) {
	query := q.(queries.ListDocumentsQuery)
	return h.store.List(ctx, query.OwnerID)
}
