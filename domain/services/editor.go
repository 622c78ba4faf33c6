package services

import (
	"strings"
	"unicode/utf8"

	"github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/core/validators"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// IDGenerator supplies identifiers for new blocks
type IDGenerator interface {
	NewBlockContentID() valueobjects.BlockContentID
	NewLocatedBlockID() valueobjects.LocatedBlockID
}

// ReferenceResolver recognizes a pasted line that points at existing content
type ReferenceResolver interface {
	Resolve(g *aggregates.Graph, line string) (valueobjects.BlockContentID, bool)
}

// EditResult is the outcome of an editor operation. A nil Focus means the
// cursor stays where it is; in that case Graph is the input graph.
type EditResult struct {
	Graph *aggregates.Graph
	Focus *valueobjects.Focus
}

// Changed reports whether the operation produced a new graph
func (r EditResult) Changed(before *aggregates.Graph) bool {
	return r.Graph != before
}

// Editor implements the keyboard-driven structural edits of the outline
type Editor struct {
	ids          IDGenerator
	references   ReferenceResolver
	text         *validators.TextValidator
	transclusion bool
}

// NewEditor creates an editor. references may be nil, in which case pasted
// lines are always treated as text.
func NewEditor(ids IDGenerator, references ReferenceResolver, cfg *config.DomainConfig) *Editor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Editor{
		ids:          ids,
		references:   references,
		text:         validators.NewTextValidator(cfg),
		transclusion: cfg.EnableTransclusion,
	}
}

func unchanged(g *aggregates.Graph) EditResult {
	return EditResult{Graph: g}
}

// Enter splits the block at path around the cursor. leftText and rightText
// are the block's text before and after the cursor.
func (e *Editor) Enter(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path, leftText, rightText string) (EditResult, error) {
	for _, t := range []string{leftText, rightText} {
		if err := e.text.ValidateHumanText(t); err != nil {
			return EditResult{}, err
		}
	}
	current, err := g.ContentAt(root, path)
	if err != nil {
		return EditResult{}, err
	}
	newLocated, newContent := e.ids.NewLocatedBlockID(), e.ids.NewBlockContentID()
	verb := current.Verb()

	switch {
	case leftText == "" && rightText != "" && !path.IsRoot():
		// Cursor at the very start: open an empty block above.
		located, err := g.LocatedBlock(path.Last())
		if err != nil {
			return EditResult{}, err
		}
		next, err := g.InsertNewBlock(located.LeftID(), located.ParentID(), "", verb.DefaultSiblingVerb(), newLocated, newContent)
		if err != nil {
			return EditResult{}, err
		}
		return EditResult{Graph: next, Focus: valueobjects.NewFocus(path.Sibling(newLocated), valueobjects.FocusStart())}, nil

	case !current.HasChildren() && !path.IsRoot():
		located, err := g.LocatedBlock(path.Last())
		if err != nil {
			return EditResult{}, err
		}
		next, err := g.UpdateHumanText(current.ID(), leftText)
		if err != nil {
			return EditResult{}, err
		}
		next, err = next.InsertNewBlock(located.ID(), located.ParentID(), rightText, verb.DefaultSiblingVerb(), newLocated, newContent)
		if err != nil {
			return EditResult{}, err
		}
		return EditResult{Graph: next, Focus: valueobjects.NewFocus(path.Sibling(newLocated), valueobjects.FocusStart())}, nil

	default:
		next, err := g.UpdateHumanText(current.ID(), leftText)
		if err != nil {
			return EditResult{}, err
		}
		next, err = next.InsertNewBlock(valueobjects.LocatedBlockID{}, current.ID(), rightText, verb.DefaultChildVerb(), newLocated, newContent)
		if err != nil {
			return EditResult{}, err
		}
		return EditResult{Graph: next, Focus: valueobjects.NewFocus(path.Child(newLocated), valueobjects.FocusStart())}, nil
	}
}

// Backspace at the start of a block merges it into the block above
func (e *Editor) Backspace(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path) (EditResult, error) {
	if path.IsRoot() {
		return EditResult{}, pkgerrors.NewNoSuchBlock(directionUp)
	}
	current, err := g.ContentAt(root, path)
	if err != nil {
		return EditResult{}, err
	}
	upPath, err := UpstairsNeighbor(g, path)
	if err != nil {
		return EditResult{}, err
	}
	upper, err := g.ContentAt(root, upPath)
	if err != nil {
		return EditResult{}, err
	}
	located := path.Last()

	// Merging two child lists has no single obvious order.
	if current.HasChildren() && upper.HasChildren() {
		return unchanged(g), nil
	}

	// An empty placeholder above is dropped and this block takes its place.
	if !upPath.IsRoot() && upper.LocationCount() <= 1 && upper.ChildCount() <= 1 && upper.HumanText() == "" {
		upperLocated, err := g.LocatedBlock(upPath.Last())
		if err != nil {
			return EditResult{}, err
		}
		next, err := g.MoveLocatedBlock(located, upperLocated.LeftID(), upperLocated.ParentID())
		if err != nil {
			return EditResult{}, err
		}
		next, err = next.RemoveLocatedBlock(upperLocated.ID())
		if err != nil {
			return EditResult{}, err
		}
		return EditResult{Graph: next, Focus: valueobjects.NewFocus(upPath.Sibling(located), valueobjects.FocusStart())}, nil
	}

	// Text shown elsewhere cannot be folded into another block.
	if current.IsTranscluded() {
		return unchanged(g), nil
	}

	join := utf8.RuneCountInString(upper.HumanText())
	next, err := g.UpdateHumanText(upper.ID(), upper.HumanText()+current.HumanText())
	if err != nil {
		return EditResult{}, err
	}
	next, err = next.MoveChildren(current.FirstChild(), upper.ID())
	if err != nil {
		return EditResult{}, err
	}
	next, err = next.RemoveLocatedBlock(located)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Graph: next, Focus: valueobjects.NewFocus(upPath, valueobjects.FocusAt(join))}, nil
}

// Indent makes the block the last child of its left sibling. A first child
// gets an empty left sibling to indent under, except at the top of the
// document where nothing changes.
func (e *Editor) Indent(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path, pos valueobjects.FocusPosition) (EditResult, error) {
	if path.IsRoot() {
		return unchanged(g), nil
	}
	current, err := g.ContentAt(root, path)
	if err != nil {
		return EditResult{}, err
	}
	located, err := g.LocatedBlock(path.Last())
	if err != nil {
		return EditResult{}, err
	}
	if located.IsLeftmost() && len(path) == 1 {
		return unchanged(g), nil
	}
	if err := e.text.ValidateDepth(len(path) + 1); err != nil {
		return EditResult{}, err
	}

	next := g
	left := located.LeftID()
	if left.IsZero() {
		left = e.ids.NewLocatedBlockID()
		next, err = next.InsertNewBlock(valueobjects.LocatedBlockID{}, located.ParentID(), "",
			current.Verb().DefaultSiblingVerb(), left, e.ids.NewBlockContentID())
		if err != nil {
			return EditResult{}, err
		}
	}

	leftLocated, err := next.LocatedBlock(left)
	if err != nil {
		return EditResult{}, err
	}
	leftContent, err := next.BlockContent(leftLocated.ContentID())
	if err != nil {
		return EditResult{}, err
	}
	next, err = next.MoveLocatedBlock(located.ID(), leftContent.LastChild(), leftContent.ID())
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Graph: next, Focus: valueobjects.NewFocus(path.Sibling(left).Child(located.ID()), pos)}, nil
}

// Outdent makes the block the right sibling of its parent. The siblings that
// followed it become its children.
func (e *Editor) Outdent(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path, pos valueobjects.FocusPosition) (EditResult, error) {
	if len(path) < 2 {
		return unchanged(g), nil
	}
	current, err := g.ContentAt(root, path)
	if err != nil {
		return EditResult{}, err
	}
	located, err := g.LocatedBlock(path.Last())
	if err != nil {
		return EditResult{}, err
	}
	parentLocated, err := g.LocatedBlock(path[len(path)-2])
	if err != nil {
		return EditResult{}, err
	}
	parent, err := g.BlockContent(located.ParentID())
	if err != nil {
		return EditResult{}, err
	}
	right := parent.RightSiblingOf(located.ID())

	next, err := g.MoveLocatedBlock(located.ID(), parentLocated.ID(), parentLocated.ParentID())
	if err != nil {
		return EditResult{}, err
	}
	next, err = next.MoveChildren(right, current.ID())
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Graph: next, Focus: valueobjects.NewFocus(path.Parent().Sibling(located.ID()), pos)}, nil
}

// pasteLine is one line of a paste with the text its block will hold
type pasteLine struct {
	text      string
	cursor    int
	reference valueobjects.BlockContentID
}

// Paste inserts multi-line text at the cursor. before and after are the
// current block's text on either side of the cursor.
func (e *Editor) Paste(g *aggregates.Graph, root valueobjects.BlockContentID, path valueobjects.Path, before, after, clipboard string) (EditResult, error) {
	if err := e.text.ValidateClipboard(clipboard); err != nil {
		return EditResult{}, err
	}
	current, err := g.ContentAt(root, path)
	if err != nil {
		return EditResult{}, err
	}
	lines := e.splitPaste(g, before, after, clipboard)

	// The first line lands in the current block.
	next := g
	first := lines[0]
	if !first.reference.IsZero() && !path.IsRoot() && !current.HasChildren() {
		next, err = next.LinkNewContent(path.Last(), first.reference)
	} else {
		next, err = next.UpdateHumanText(current.ID(), first.text)
	}
	if err != nil {
		return EditResult{}, err
	}
	if len(lines) == 1 {
		return EditResult{Graph: next, Focus: valueobjects.NewFocus(path, cursorFor(first))}, nil
	}

	// The rest become siblings after it, or leading children of the root.
	parentID, left := current.ID(), valueobjects.LocatedBlockID{}
	verb := current.Verb().DefaultChildVerb()
	base := path
	if !path.IsRoot() {
		located, err := g.LocatedBlock(path.Last())
		if err != nil {
			return EditResult{}, err
		}
		parentID, left = located.ParentID(), located.ID()
		verb = current.Verb().DefaultSiblingVerb()
		base = path.Parent()
	}

	for _, line := range lines[1:] {
		newLocated := e.ids.NewLocatedBlockID()
		if !line.reference.IsZero() {
			next, err = next.InsertNewLocatedBlock(left, parentID, line.reference, newLocated)
		} else {
			next, err = next.InsertNewBlock(left, parentID, line.text, verb, newLocated, e.ids.NewBlockContentID())
		}
		if err != nil {
			return EditResult{}, err
		}
		left = newLocated
	}

	return EditResult{Graph: next, Focus: valueobjects.NewFocus(base.Child(left), cursorFor(lines[len(lines)-1]))}, nil
}

// splitPaste breaks the clipboard into lines, attaches before/after to the
// first and last line, and resolves lines that would hold only a reference.
func (e *Editor) splitPaste(g *aggregates.Graph, before, after, clipboard string) []pasteLine {
	raw := strings.Split(clipboard, "\n")
	lines := make([]pasteLine, len(raw))
	for i, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		prefix, suffix := "", ""
		if i == 0 {
			prefix = before
		}
		if i == len(raw)-1 {
			suffix = after
		}
		lines[i] = pasteLine{
			text:   prefix + r + suffix,
			cursor: utf8.RuneCountInString(prefix + r),
		}
		if prefix == "" && suffix == "" && e.transclusion && e.references != nil {
			if id, ok := e.references.Resolve(g, r); ok {
				lines[i].reference = id
			}
		}
	}
	return lines
}

func cursorFor(line pasteLine) valueobjects.FocusPosition {
	if !line.reference.IsZero() {
		return valueobjects.FocusEnd()
	}
	return valueobjects.FocusAt(line.cursor)
}

// URLReferenceResolver recognizes links of the form
// https://<host>/...?ref=<locatedBlockId> and resolves them to the content
// shown at that location.
type URLReferenceResolver struct {
	Host string
}

// Resolve implements ReferenceResolver
func (r URLReferenceResolver) Resolve(g *aggregates.Graph, line string) (valueobjects.BlockContentID, bool) {
	if !strings.Contains(line, "://") {
		return valueobjects.BlockContentID{}, false
	}
	u, err := validators.ValidateReferenceURL(line, r.Host)
	if err != nil {
		return valueobjects.BlockContentID{}, false
	}
	id, err := valueobjects.NewLocatedBlockID(u.Query().Get("ref"))
	if err != nil {
		return valueobjects.BlockContentID{}, false
	}
	located, err := g.LocatedBlock(id)
	if err != nil || located.IsArchived() || !g.HasBlockContent(located.ContentID()) {
		return valueobjects.BlockContentID{}, false
	}
	return located.ContentID(), true
}
