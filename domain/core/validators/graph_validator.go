package validators

import (
	"fmt"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/entities"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// GraphValidator checks the structural consistency of a graph after an edit.
// Primitives keep the graph consistent on their own; this catches editor
// operations that compose them incorrectly.
type GraphValidator struct{}

// NewGraphValidator creates a graph validator
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// Validate checks next and, on failure, returns an *errors.InvariantViolation
// carrying both graphs so the edit can be replayed offline.
func (v *GraphValidator) Validate(prev, next *aggregates.Graph) error {
	problems := v.Check(next)
	if len(problems) == 0 {
		return nil
	}
	return &errors.InvariantViolation{
		Message:  "graph consistency check failed",
		Problems: problems,
		OldGraph: dump(prev),
		NewGraph: dump(next),
	}
}

// Check returns every consistency problem in g, in a stable order
func (v *GraphValidator) Check(g *aggregates.Graph) []string {
	if g == nil {
		return []string{"graph is nil"}
	}
	var problems []string
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, l := range g.LocatedBlocks() {
		if l.IsArchived() {
			checkArchived(g, l, report)
			continue
		}
		checkLive(g, l, report)
	}

	for _, c := range g.BlockContents() {
		if c.LocationCount() == 0 {
			report("content %s has no locations", c.ID())
		}
		for _, id := range c.LocatedBlocks() {
			l, err := g.LocatedBlock(id)
			if err != nil {
				report("content %s lists missing location %s", c.ID(), id)
				continue
			}
			if !l.ContentID().Equals(c.ID()) {
				report("content %s lists location %s which shows content %s", c.ID(), id, l.ContentID())
			}
		}
		for _, id := range c.ChildLocatedBlocks() {
			l, err := g.LocatedBlock(id)
			if err != nil {
				report("content %s lists missing child %s", c.ID(), id)
				continue
			}
			if !l.ParentID().Equals(c.ID()) {
				report("content %s lists child %s whose parent is %s", c.ID(), id, l.ParentID())
			}
		}
	}

	checkCycles(g, report)

	return problems
}

// checkCycles walks live child edges depth first and reports every content
// reached again while it is still on the walk.
func checkCycles(g *aggregates.Graph, report func(string, ...interface{})) {
	const (
		onPath = 1
		done   = 2
	)
	state := make(map[valueobjects.BlockContentID]int)
	reported := make(map[valueobjects.BlockContentID]bool)

	var visit func(id valueobjects.BlockContentID)
	visit = func(id valueobjects.BlockContentID) {
		state[id] = onPath
		if content, err := g.BlockContent(id); err == nil {
			for _, childID := range content.ChildLocatedBlocks() {
				child, err := g.LocatedBlock(childID)
				if err != nil || child.IsArchived() {
					continue
				}
				next := child.ContentID()
				switch state[next] {
				case onPath:
					if !reported[next] {
						reported[next] = true
						report("content %s is placed inside itself", next)
					}
				case 0:
					visit(next)
				}
			}
		}
		state[id] = done
	}

	for _, c := range g.BlockContents() {
		if state[c.ID()] == 0 {
			visit(c.ID())
		}
	}
}

func checkLive(g *aggregates.Graph, l *entities.LocatedBlock, report func(string, ...interface{})) {
	content, err := g.BlockContent(l.ContentID())
	if err != nil {
		report("location %s shows missing content %s", l.ID(), l.ContentID())
	} else if !content.HasLocation(l.ID()) {
		report("location %s is not in the location set of content %s", l.ID(), l.ContentID())
	}

	if l.IsRoot() {
		if !l.LeftID().IsZero() {
			report("root location %s has left sibling %s", l.ID(), l.LeftID())
		}
		return
	}

	parent, err := g.BlockContent(l.ParentID())
	if err != nil {
		report("location %s has missing parent %s", l.ID(), l.ParentID())
		return
	}
	if parent.IsArchived() {
		report("location %s has archived parent %s", l.ID(), l.ParentID())
	}

	children := parent.ChildLocatedBlocks()
	index, count := -1, 0
	for i, id := range children {
		if id.Equals(l.ID()) {
			if index < 0 {
				index = i
			}
			count++
		}
	}
	if count != 1 {
		report("location %s appears %d times under parent %s", l.ID(), count, l.ParentID())
		return
	}

	var want valueobjects.LocatedBlockID
	if index > 0 {
		want = children[index-1]
	}
	if !l.LeftID().Equals(want) {
		report("location %s has left %q, expected %q", l.ID(), l.LeftID(), want)
		return
	}
	if !want.IsZero() {
		left, err := g.LocatedBlock(want)
		if err != nil || left.IsArchived() || !left.ParentID().Equals(l.ParentID()) {
			report("location %s has an invalid left sibling %s", l.ID(), want)
		}
	}
}

func checkArchived(g *aggregates.Graph, l *entities.LocatedBlock, report func(string, ...interface{})) {
	if parent, err := g.BlockContent(l.ParentID()); err == nil && parent.ChildIndex(l.ID()) >= 0 {
		report("archived location %s is still a child of %s", l.ID(), l.ParentID())
	}
	if content, err := g.BlockContent(l.ContentID()); err == nil && content.HasLocation(l.ID()) {
		report("archived location %s is still in the location set of %s", l.ID(), l.ContentID())
	}
}

func dump(g *aggregates.Graph) string {
	if g == nil {
		return ""
	}
	data, err := aggregates.Serialize(g)
	if err != nil {
		return fmt.Sprintf("<unserializable: %v>", err)
	}
	return data
}
