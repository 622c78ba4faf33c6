package aggregates

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dnsosebee/methodable-sub000/domain/core/entities"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
)

type graphDocument struct {
	BlockContents []blockContentRecord `json:"blockContents"`
	LocatedBlocks []locatedBlockRecord `json:"locatedBlocks"`
}

type blockContentRecord struct {
	ID        valueobjects.BlockContentID `json:"id"`
	Verb      string                      `json:"verb"`
	HumanText string                      `json:"humanText"`
	UserID    string                      `json:"userId"`
	Archived  bool                        `json:"archived"`
}

type locatedBlockRecord struct {
	ID          valueobjects.LocatedBlockID `json:"id"`
	ContentID   valueobjects.BlockContentID `json:"contentId"`
	UserID      string                      `json:"userId"`
	BlockStatus string                      `json:"blockStatus"`
	ParentID    valueobjects.BlockContentID `json:"parentId"`
	LeftID      valueobjects.LocatedBlockID `json:"leftId"`
	Archived    bool                        `json:"archived"`
}

// Serialize writes the graph as a JSON document. Child order and location
// sets are not stored; they are rebuilt from parentId/leftId on load.
func Serialize(g *Graph) (string, error) {
	doc := graphDocument{
		BlockContents: make([]blockContentRecord, 0, len(g.blockContents)),
		LocatedBlocks: make([]locatedBlockRecord, 0, len(g.locatedBlocks)),
	}
	for _, c := range g.BlockContents() {
		doc.BlockContents = append(doc.BlockContents, blockContentRecord{
			ID:        c.ID(),
			Verb:      c.Verb().Name(),
			HumanText: c.HumanText(),
			UserID:    c.UserID(),
			Archived:  c.IsArchived(),
		})
	}
	for _, l := range g.LocatedBlocks() {
		doc.LocatedBlocks = append(doc.LocatedBlocks, locatedBlockRecord{
			ID:          l.ID(),
			ContentID:   l.ContentID(),
			UserID:      l.UserID(),
			BlockStatus: string(l.BlockStatus()),
			ParentID:    l.ParentID(),
			LeftID:      l.LeftID(),
			Archived:    l.IsArchived(),
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal graph: %w", err)
	}
	return string(data), nil
}

// Deserialize rebuilds a graph from Serialize output. Child lists are
// threaded by following leftId chains under each parent, and location sets
// are built from live locations only.
//
// Structural damage (a broken sibling chain, a location pointing at missing
// content) does not fail the load; it surfaces in the validator instead, so
// damaged documents can still be inspected.
func Deserialize(data string) (*Graph, error) {
	var doc graphDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	locations := make(map[valueobjects.BlockContentID][]valueobjects.LocatedBlockID)
	byParent := make(map[valueobjects.BlockContentID][]locatedBlockRecord)
	located := make([]*entities.LocatedBlock, 0, len(doc.LocatedBlocks))
	contents := make([]*entities.BlockContent, 0, len(doc.BlockContents))

	for i, rec := range doc.LocatedBlocks {
		if rec.ID.IsZero() {
			return nil, fmt.Errorf("located block %d has no id", i)
		}
		status, err := valueobjects.ParseBlockStatus(rec.BlockStatus)
		if err != nil {
			return nil, fmt.Errorf("located block %s: %w", rec.ID, err)
		}
		located = append(located, entities.ReconstructLocatedBlock(
			rec.ID, rec.ContentID, rec.ParentID, rec.LeftID, rec.UserID, status, rec.Archived,
		))
		if rec.Archived {
			continue
		}
		locations[rec.ContentID] = append(locations[rec.ContentID], rec.ID)
		if !rec.ParentID.IsZero() {
			byParent[rec.ParentID] = append(byParent[rec.ParentID], rec)
		}
	}

	for i, rec := range doc.BlockContents {
		if rec.ID.IsZero() {
			return nil, fmt.Errorf("block content %d has no id", i)
		}
		verb, err := valueobjects.ParseVerb(rec.Verb)
		if err != nil {
			return nil, fmt.Errorf("block content %s: %w", rec.ID, err)
		}
		contents = append(contents, entities.ReconstructBlockContent(
			rec.ID, rec.HumanText, verb, rec.UserID,
			threadChildren(byParent[rec.ID]), locations[rec.ID], rec.Archived,
		))
	}

	return ReconstructGraph(contents, located), nil
}

// threadChildren orders siblings by walking leftId links from the leftmost
// one. Siblings the walk never reaches are appended in id order.
func threadChildren(siblings []locatedBlockRecord) []valueobjects.LocatedBlockID {
	if len(siblings) == 0 {
		return nil
	}
	rightOf := make(map[valueobjects.LocatedBlockID]valueobjects.LocatedBlockID, len(siblings))
	var first valueobjects.LocatedBlockID
	for _, s := range siblings {
		if s.LeftID.IsZero() {
			if first.IsZero() {
				first = s.ID
			}
			continue
		}
		if _, taken := rightOf[s.LeftID]; !taken {
			rightOf[s.LeftID] = s.ID
		}
	}

	ordered := make([]valueobjects.LocatedBlockID, 0, len(siblings))
	placed := make(map[valueobjects.LocatedBlockID]bool, len(siblings))
	for id := first; !id.IsZero() && !placed[id]; id = rightOf[id] {
		ordered = append(ordered, id)
		placed[id] = true
	}

	var rest []valueobjects.LocatedBlockID
	for _, s := range siblings {
		if !placed[s.ID] {
			rest = append(rest, s.ID)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	return append(ordered, rest...)
}
