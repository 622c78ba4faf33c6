package aggregates

import (
	"sort"

	"github.com/dnsosebee/methodable-sub000/domain/core/entities"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// Graph is the content-location graph of one document. It is a persistent
// value: every mutation returns a new Graph and leaves the receiver as it was,
// so any number of readers can hold on to an old version safely.
//
// Internally each mutation clones the two id maps and replaces the entities it
// touches. Unchanged entities are shared between versions.
type Graph struct {
	userID        string
	blockContents map[valueobjects.BlockContentID]*entities.BlockContent
	locatedBlocks map[valueobjects.LocatedBlockID]*entities.LocatedBlock
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		blockContents: make(map[valueobjects.BlockContentID]*entities.BlockContent),
		locatedBlocks: make(map[valueobjects.LocatedBlockID]*entities.LocatedBlock),
	}
}

// WithUser returns a graph that stamps new blocks with userID
func (g *Graph) WithUser(userID string) *Graph {
	ng := g.clone()
	ng.userID = userID
	return ng
}

// UserID returns the id stamped on newly created blocks
func (g *Graph) UserID() string {
	return g.userID
}

// ReconstructGraph assembles a graph from entities exactly as given. Child
// lists and location sets are taken as-is; nothing is rethreaded or checked.
func ReconstructGraph(contents []*entities.BlockContent, located []*entities.LocatedBlock) *Graph {
	g := NewGraph()
	for _, c := range contents {
		g.blockContents[c.ID()] = c
	}
	for _, l := range located {
		g.locatedBlocks[l.ID()] = l
	}
	return g
}

func (g *Graph) clone() *Graph {
	ng := &Graph{
		userID:        g.userID,
		blockContents: make(map[valueobjects.BlockContentID]*entities.BlockContent, len(g.blockContents)+1),
		locatedBlocks: make(map[valueobjects.LocatedBlockID]*entities.LocatedBlock, len(g.locatedBlocks)+1),
	}
	for k, v := range g.blockContents {
		ng.blockContents[k] = v
	}
	for k, v := range g.locatedBlocks {
		ng.locatedBlocks[k] = v
	}
	return ng
}

// Reads

// BlockContent looks up content by id
func (g *Graph) BlockContent(id valueobjects.BlockContentID) (*entities.BlockContent, error) {
	c, ok := g.blockContents[id]
	if !ok {
		return nil, pkgerrors.NewContentNotFound(id.String())
	}
	return c, nil
}

// LocatedBlock looks up a location by id. Archived locations are returned too;
// callers that need a live one check IsArchived.
func (g *Graph) LocatedBlock(id valueobjects.LocatedBlockID) (*entities.LocatedBlock, error) {
	l, ok := g.locatedBlocks[id]
	if !ok {
		return nil, pkgerrors.NewLocatedBlockNotFound(id.String())
	}
	return l, nil
}

// HasBlockContent reports whether id names live content
func (g *Graph) HasBlockContent(id valueobjects.BlockContentID) bool {
	_, ok := g.blockContents[id]
	return ok
}

// HasLocatedBlock reports whether id names a location, archived or not
func (g *Graph) HasLocatedBlock(id valueobjects.LocatedBlockID) bool {
	_, ok := g.locatedBlocks[id]
	return ok
}

// liveLocatedBlock is LocatedBlock for mutations, where archived counts as missing
func (g *Graph) liveLocatedBlock(id valueobjects.LocatedBlockID) (*entities.LocatedBlock, error) {
	l, ok := g.locatedBlocks[id]
	if !ok || l.IsArchived() {
		return nil, pkgerrors.NewLocatedBlockNotFound(id.String())
	}
	return l, nil
}

// ResolvePath walks path from root and returns the content at every step,
// starting with root itself. Each location in the path must be a live child
// of the content before it.
func (g *Graph) ResolvePath(root valueobjects.BlockContentID, path valueobjects.Path) ([]*entities.BlockContent, error) {
	current, err := g.BlockContent(root)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.BlockContent, 0, len(path)+1)
	out = append(out, current)
	for _, id := range path {
		l, err := g.liveLocatedBlock(id)
		if err != nil {
			return nil, err
		}
		if !l.ParentID().Equals(current.ID()) {
			return nil, pkgerrors.NewLocatedBlockNotFound(id.String()).
				WithDetail("parent_content_id", current.ID().String())
		}
		current, err = g.BlockContent(l.ContentID())
		if err != nil {
			return nil, err
		}
		out = append(out, current)
	}
	return out, nil
}

// ContentAt returns the content addressed by path below root
func (g *Graph) ContentAt(root valueobjects.BlockContentID, path valueobjects.Path) (*entities.BlockContent, error) {
	chain, err := g.ResolvePath(root, path)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

// BlockContents returns every content sorted by id
func (g *Graph) BlockContents() []*entities.BlockContent {
	out := make([]*entities.BlockContent, 0, len(g.blockContents))
	for _, c := range g.blockContents {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

// LocatedBlocks returns every location, archived included, sorted by id
func (g *Graph) LocatedBlocks() []*entities.LocatedBlock {
	out := make([]*entities.LocatedBlock, 0, len(g.locatedBlocks))
	for _, l := range g.locatedBlocks {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

// Roots returns the live tree-root locations sorted by id
func (g *Graph) Roots() []*entities.LocatedBlock {
	var out []*entities.LocatedBlock
	for _, l := range g.LocatedBlocks() {
		if l.IsRoot() && !l.IsArchived() {
			out = append(out, l)
		}
	}
	return out
}

// Equal reports whether both graphs hold the same entities with the same
// fields, child order included.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.blockContents) != len(other.blockContents) || len(g.locatedBlocks) != len(other.locatedBlocks) {
		return false
	}
	for id, c := range g.blockContents {
		if !c.Equal(other.blockContents[id]) {
			return false
		}
	}
	for id, l := range g.locatedBlocks {
		if !l.Equal(other.locatedBlocks[id]) {
			return false
		}
	}
	return true
}

// Primitives

// InsertRootBlock seeds a document with a tree-root location (no parent)
// wrapping fresh content.
func (g *Graph) InsertRootBlock(
	humanText string,
	verb valueobjects.Verb,
	newLocatedID valueobjects.LocatedBlockID,
	newContentID valueobjects.BlockContentID,
) (*Graph, error) {
	if err := g.checkFresh(newLocatedID, newContentID); err != nil {
		return nil, err
	}
	ng := g.clone()
	content := entities.NewBlockContent(newContentID, humanText, verb, g.userID).WithLocationAdded(newLocatedID)
	ng.blockContents[newContentID] = content
	ng.locatedBlocks[newLocatedID] = entities.NewLocatedBlock(newLocatedID, newContentID, valueobjects.BlockContentID{}, valueobjects.LocatedBlockID{}, g.userID)
	return ng, nil
}

// InsertNewBlock creates fresh content shown at a new location under
// parentContentID, right of leftID. A zero leftID makes it the first child.
func (g *Graph) InsertNewBlock(
	leftID valueobjects.LocatedBlockID,
	parentContentID valueobjects.BlockContentID,
	humanText string,
	verb valueobjects.Verb,
	newLocatedID valueobjects.LocatedBlockID,
	newContentID valueobjects.BlockContentID,
) (*Graph, error) {
	if !g.HasBlockContent(parentContentID) {
		return nil, pkgerrors.NewContentNotFound(parentContentID.String())
	}
	if err := g.checkFresh(newLocatedID, newContentID); err != nil {
		return nil, err
	}
	ng := g.clone()
	ng.blockContents[newContentID] = entities.NewBlockContent(newContentID, humanText, verb, g.userID).WithLocationAdded(newLocatedID)
	located := entities.NewLocatedBlock(newLocatedID, newContentID, parentContentID, leftID, g.userID)
	if err := ng.addSurroundingBlocks(located); err != nil {
		return nil, err
	}
	return ng, nil
}

// InsertNewLocatedBlock shows existing content at one more location
func (g *Graph) InsertNewLocatedBlock(
	leftID valueobjects.LocatedBlockID,
	parentContentID valueobjects.BlockContentID,
	contentID valueobjects.BlockContentID,
	newLocatedID valueobjects.LocatedBlockID,
) (*Graph, error) {
	if g.HasLocatedBlock(newLocatedID) || newLocatedID.IsZero() {
		return nil, pkgerrors.NewInvalidArgument("located_block_id", "located block id is empty or already in use")
	}
	content, err := g.BlockContent(contentID)
	if err != nil {
		return nil, err
	}
	if err := g.checkPlacement(contentID, parentContentID); err != nil {
		return nil, err
	}

	ng := g.clone()
	ng.blockContents[contentID] = content.WithLocationAdded(newLocatedID)
	located := entities.NewLocatedBlock(newLocatedID, contentID, parentContentID, leftID, g.userID)
	if err := ng.addSurroundingBlocks(located); err != nil {
		return nil, err
	}
	return ng, nil
}

// LinkNewContent makes an existing location show different content. The old
// content is deleted if this was its last location.
func (g *Graph) LinkNewContent(locatedID valueobjects.LocatedBlockID, newContentID valueobjects.BlockContentID) (*Graph, error) {
	located, err := g.liveLocatedBlock(locatedID)
	if err != nil {
		return nil, err
	}
	newContent, err := g.BlockContent(newContentID)
	if err != nil {
		return nil, err
	}
	if located.ContentID().Equals(newContentID) {
		return g, nil
	}
	if !located.IsRoot() {
		if err := g.checkPlacement(newContentID, located.ParentID()); err != nil {
			return nil, err
		}
	}

	ng := g.clone()
	// Attach to the new content before releasing the old one, so a cascade
	// through the old content cannot delete the new content.
	ng.blockContents[newContentID] = newContent.WithLocationAdded(locatedID)
	ng.locatedBlocks[locatedID] = located.WithContent(newContentID)
	ng.releaseLocation(located.ContentID(), locatedID)
	return ng, nil
}

// MoveLocatedBlock detaches a location and threads it under newParentContentID
// right of newLeftID.
func (g *Graph) MoveLocatedBlock(
	locatedID valueobjects.LocatedBlockID,
	newLeftID valueobjects.LocatedBlockID,
	newParentContentID valueobjects.BlockContentID,
) (*Graph, error) {
	ng := g.clone()
	if err := ng.move(locatedID, newLeftID, newParentContentID); err != nil {
		return nil, err
	}
	return ng, nil
}

// RemoveLocatedBlock archives a location. Its content is deleted when no
// other location shows it, and that deletion archives the content's children.
// Removing an already archived location changes nothing.
func (g *Graph) RemoveLocatedBlock(locatedID valueobjects.LocatedBlockID) (*Graph, error) {
	located, err := g.LocatedBlock(locatedID)
	if err != nil {
		return nil, err
	}
	if located.IsArchived() {
		return g, nil
	}

	ng := g.clone()
	if err := ng.removeSurroundingBlocks(located); err != nil {
		return nil, err
	}
	ng.locatedBlocks[locatedID] = located.AsArchived()
	ng.releaseLocation(located.ContentID(), locatedID)
	return ng, nil
}

// MoveChildren moves leftmostChildID and every sibling to its right to the end
// of newParentContentID's children, keeping their order. A zero id moves nothing.
func (g *Graph) MoveChildren(leftmostChildID valueobjects.LocatedBlockID, newParentContentID valueobjects.BlockContentID) (*Graph, error) {
	if leftmostChildID.IsZero() {
		return g, nil
	}
	located, err := g.liveLocatedBlock(leftmostChildID)
	if err != nil {
		return nil, err
	}
	run := []valueobjects.LocatedBlockID{leftmostChildID}
	if !located.IsRoot() {
		parent, err := g.BlockContent(located.ParentID())
		if err != nil {
			return nil, err
		}
		index := parent.ChildIndex(leftmostChildID)
		if index < 0 {
			return nil, pkgerrors.NewLocatedBlockNotFound(leftmostChildID.String()).
				WithDetail("parent_content_id", parent.ID().String())
		}
		run = parent.ChildLocatedBlocks()[index:]
	}

	ng := g.clone()
	if err := ng.moveRun(run, newParentContentID); err != nil {
		return nil, err
	}
	return ng, nil
}

func (g *Graph) moveRun(run []valueobjects.LocatedBlockID, parentID valueobjects.BlockContentID) error {
	if len(run) == 0 {
		return nil
	}
	parent, err := g.BlockContent(parentID)
	if err != nil {
		return err
	}
	if !parent.LastChild().Equals(run[0]) {
		if err := g.move(run[0], parent.LastChild(), parentID); err != nil {
			return err
		}
	}
	return g.moveRun(run[1:], parentID)
}

// UpdateHumanText replaces the text of a content everywhere it is shown
func (g *Graph) UpdateHumanText(contentID valueobjects.BlockContentID, humanText string) (*Graph, error) {
	content, err := g.BlockContent(contentID)
	if err != nil {
		return nil, err
	}
	ng := g.clone()
	ng.blockContents[contentID] = content.WithHumanText(humanText)
	return ng, nil
}

// UpdateVerb retags a content
func (g *Graph) UpdateVerb(contentID valueobjects.BlockContentID, verb valueobjects.Verb) (*Graph, error) {
	content, err := g.BlockContent(contentID)
	if err != nil {
		return nil, err
	}
	if verb == nil {
		return nil, pkgerrors.NewInvalidArgument("verb", "verb is required")
	}
	ng := g.clone()
	ng.blockContents[contentID] = content.WithVerb(verb)
	return ng, nil
}

// UpdateBlockStatus sets the guide status of one location
func (g *Graph) UpdateBlockStatus(locatedID valueobjects.LocatedBlockID, status valueobjects.BlockStatus) (*Graph, error) {
	located, err := g.liveLocatedBlock(locatedID)
	if err != nil {
		return nil, err
	}
	ng := g.clone()
	ng.locatedBlocks[locatedID] = located.WithStatus(status)
	return ng, nil
}

// In-place helpers. These only ever run on a graph returned by clone that has
// not been handed to a caller yet.

func (g *Graph) move(locatedID, newLeftID valueobjects.LocatedBlockID, newParentID valueobjects.BlockContentID) error {
	located, err := g.liveLocatedBlock(locatedID)
	if err != nil {
		return err
	}
	if !g.HasBlockContent(newParentID) {
		return pkgerrors.NewContentNotFound(newParentID.String())
	}
	if err := g.checkPlacement(located.ContentID(), newParentID); err != nil {
		return err
	}
	if err := g.removeSurroundingBlocks(located); err != nil {
		return err
	}
	return g.addSurroundingBlocks(located.WithPosition(newParentID, newLeftID))
}

// addSurroundingBlocks threads located into its parent's child list right of
// its leftID and points the displaced right sibling back at it. Tree roots
// are stored without threading.
func (g *Graph) addSurroundingBlocks(located *entities.LocatedBlock) error {
	if located.IsRoot() {
		g.locatedBlocks[located.ID()] = located
		return nil
	}
	parent, err := g.BlockContent(located.ParentID())
	if err != nil {
		return err
	}

	index := 0
	if !located.LeftID().IsZero() {
		leftIndex := parent.ChildIndex(located.LeftID())
		if leftIndex < 0 {
			return pkgerrors.NewLocatedBlockNotFound(located.LeftID().String()).
				WithDetail("parent_content_id", parent.ID().String())
		}
		index = leftIndex + 1
	}

	children := parent.ChildLocatedBlocks()
	if index < len(children) {
		right := g.locatedBlocks[children[index]]
		g.locatedBlocks[right.ID()] = right.WithLeft(located.ID())
	}
	g.blockContents[parent.ID()] = parent.WithChildInsertedAt(index, located.ID())
	g.locatedBlocks[located.ID()] = located
	return nil
}

// removeSurroundingBlocks unthreads located from its parent's child list and
// hands its leftID to the right sibling.
func (g *Graph) removeSurroundingBlocks(located *entities.LocatedBlock) error {
	if located.IsRoot() {
		return nil
	}
	parent, err := g.BlockContent(located.ParentID())
	if err != nil {
		return err
	}
	right := parent.RightSiblingOf(located.ID())
	if !right.IsZero() {
		r := g.locatedBlocks[right]
		g.locatedBlocks[right] = r.WithLeft(located.LeftID())
	}
	g.blockContents[parent.ID()] = parent.WithChildRemoved(located.ID())
	return nil
}

// releaseLocation drops locatedID from a content's location set and deletes
// the content if that was its last location.
func (g *Graph) releaseLocation(contentID valueobjects.BlockContentID, locatedID valueobjects.LocatedBlockID) {
	content, ok := g.blockContents[contentID]
	if !ok {
		return
	}
	content = content.WithLocationRemoved(locatedID)
	if content.LocationCount() > 0 {
		g.blockContents[contentID] = content
		return
	}
	g.deleteContent(content)
}

// deleteContent removes an orphaned content and archives its child locations,
// which would otherwise point at a missing parent.
func (g *Graph) deleteContent(content *entities.BlockContent) {
	delete(g.blockContents, content.ID())
	for _, childID := range content.ChildLocatedBlocks() {
		child, ok := g.locatedBlocks[childID]
		if !ok || child.IsArchived() {
			continue
		}
		g.locatedBlocks[childID] = child.AsArchived()
		g.releaseLocation(child.ContentID(), childID)
	}
}

func (g *Graph) checkFresh(locatedID valueobjects.LocatedBlockID, contentID valueobjects.BlockContentID) error {
	if locatedID.IsZero() || g.HasLocatedBlock(locatedID) {
		return pkgerrors.NewInvalidArgument("located_block_id", "located block id is empty or already in use")
	}
	if contentID.IsZero() || g.HasBlockContent(contentID) {
		return pkgerrors.NewInvalidArgument("content_id", "block content id is empty or already in use")
	}
	return nil
}

// checkPlacement rejects showing contentID under parentID when parentID is
// contentID itself or one of its descendants.
func (g *Graph) checkPlacement(contentID, parentID valueobjects.BlockContentID) error {
	if !g.HasBlockContent(parentID) {
		return pkgerrors.NewContentNotFound(parentID.String())
	}
	if g.isDescendantOrSelf(parentID, contentID, make(map[valueobjects.BlockContentID]bool)) {
		return pkgerrors.NewCyclicPlacement(contentID.String(), parentID.String())
	}
	return nil
}

func (g *Graph) isDescendantOrSelf(target, ancestor valueobjects.BlockContentID, seen map[valueobjects.BlockContentID]bool) bool {
	if target.Equals(ancestor) {
		return true
	}
	if seen[ancestor] {
		return false
	}
	seen[ancestor] = true
	content, ok := g.blockContents[ancestor]
	if !ok {
		return false
	}
	for _, childID := range content.ChildLocatedBlocks() {
		child, ok := g.locatedBlocks[childID]
		if !ok || child.IsArchived() {
			continue
		}
		if g.isDescendantOrSelf(target, child.ContentID(), seen) {
			return true
		}
	}
	return false
}
