package services

import (
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

const (
	directionUp   = "up"
	directionDown = "down"
)

// UpstairsNeighbor returns the block displayed immediately above path in
// pre-order: the parent for a leftmost child, otherwise the deepest rightmost
// descendant of the left sibling.
func UpstairsNeighbor(g *aggregates.Graph, path valueobjects.Path) (valueobjects.Path, error) {
	if path.IsRoot() {
		return nil, pkgerrors.NewNoSuchBlock(directionUp)
	}
	located, err := g.LocatedBlock(path.Last())
	if err != nil {
		return nil, err
	}
	if located.IsLeftmost() {
		return path.Parent(), nil
	}

	out := path.Sibling(located.LeftID())
	for {
		left, err := g.LocatedBlock(out.Last())
		if err != nil {
			return nil, err
		}
		content, err := g.BlockContent(left.ContentID())
		if err != nil {
			return nil, err
		}
		if !content.HasChildren() {
			return out, nil
		}
		out = out.Child(content.LastChild())
	}
}

// DownstairsNeighbor returns the block displayed immediately below path in
// pre-order: the first child if there is one, otherwise the right sibling of
// the nearest location on the path that has one.
func DownstairsNeighbor(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path) (valueobjects.Path, error) {
	content, err := g.ContentAt(root, path)
	if err != nil {
		return nil, err
	}
	if content.HasChildren() {
		return path.Child(content.FirstChild()), nil
	}

	for i := len(path) - 1; i >= 0; i-- {
		located, err := g.LocatedBlock(path[i])
		if err != nil {
			return nil, err
		}
		parent, err := g.BlockContent(located.ParentID())
		if err != nil {
			return nil, err
		}
		if right := parent.RightSiblingOf(path[i]); !right.IsZero() {
			return valueobjects.NewPath(path[:i]...).Child(right), nil
		}
	}
	return nil, pkgerrors.NewNoSuchBlock(directionDown)
}

// NextGuideStep is DownstairsNeighbor that skips workspace blocks, which are
// rendered inline and never become the current guide step.
func NextGuideStep(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path) (valueobjects.Path, error) {
	next := path
	for {
		var err error
		next, err = DownstairsNeighbor(g, root, next)
		if err != nil {
			return nil, err
		}
		workspace, err := isWorkspace(g, root, next)
		if err != nil {
			return nil, err
		}
		if !workspace {
			return next, nil
		}
	}
}

// PreviousGuideStep is UpstairsNeighbor that skips workspace blocks
func PreviousGuideStep(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path) (valueobjects.Path, error) {
	prev := path
	for {
		var err error
		prev, err = UpstairsNeighbor(g, prev)
		if err != nil {
			return nil, err
		}
		workspace, err := isWorkspace(g, root, prev)
		if err != nil {
			return nil, err
		}
		if !workspace {
			return prev, nil
		}
	}
}

func isWorkspace(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path) (bool, error) {
	content, err := g.ContentAt(root, path)
	if err != nil {
		return false, err
	}
	return content.Verb().IsWorkspace(), nil
}

// PreOrder lists the path of every block below root, root first, in the
// order the outline displays them. A content already open on the current
// branch is listed but not expanded again.
func PreOrder(g *aggregates.Graph, root valueobjects.BlockContentID) ([]valueobjects.Path, error) {
	if _, err := g.BlockContent(root); err != nil {
		return nil, err
	}
	var out []valueobjects.Path
	open := make(map[valueobjects.BlockContentID]bool)

	var walk func(contentID valueobjects.BlockContentID, path valueobjects.Path) error
	walk = func(contentID valueobjects.BlockContentID, path valueobjects.Path) error {
		out = append(out, path)
		if open[contentID] {
			return nil
		}
		content, err := g.BlockContent(contentID)
		if err != nil {
			return err
		}
		open[contentID] = true
		defer delete(open, contentID)

		for _, childID := range content.ChildLocatedBlocks() {
			child, err := g.LocatedBlock(childID)
			if err != nil {
				return err
			}
			if err := walk(child.ContentID(), path.Child(childID)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, valueobjects.Path{}); err != nil {
		return nil, err
	}
	return out, nil
}
