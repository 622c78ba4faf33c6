package commands

import (
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
	"github.com/dnsosebee/methodable-sub000/pkg/utils"
)

// DocumentRef names the document a command edits and who is editing it
type DocumentRef struct {
	DocumentID string `json:"documentId" validate:"required,max=128"`
	UserID     string `json:"userId" validate:"required,max=128"`
}

// Editor commands address blocks by path: the comma-separated located block
// ids leading from the document root to the block. An empty path is the root.

// EnterCommand splits a block at the cursor
type EnterCommand struct {
	DocumentRef
	Path      string `json:"path"`
	LeftText  string `json:"leftText"`
	RightText string `json:"rightText"`
}

func (c EnterCommand) Validate() error { return validate(c, c.Path) }

// BackspaceCommand merges a block into the one above it
type BackspaceCommand struct {
	DocumentRef
	Path string `json:"path" validate:"required"`
}

func (c BackspaceCommand) Validate() error { return validate(c, c.Path) }

// IndentCommand makes a block the last child of its left sibling
type IndentCommand struct {
	DocumentRef
	Path     string `json:"path" validate:"required"`
	Position string `json:"position"`
}

func (c IndentCommand) Validate() error { return validatePositioned(c, c.Path, c.Position) }

// OutdentCommand makes a block the right sibling of its parent
type OutdentCommand struct {
	DocumentRef
	Path     string `json:"path" validate:"required"`
	Position string `json:"position"`
}

func (c OutdentCommand) Validate() error { return validatePositioned(c, c.Path, c.Position) }

// PasteCommand inserts multi-line clipboard text at the cursor
type PasteCommand struct {
	DocumentRef
	Path      string `json:"path"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Clipboard string `json:"clipboard" validate:"required"`
}

func (c PasteCommand) Validate() error { return validate(c, c.Path) }

// InsertBlockCommand creates a new block under a parent content
type InsertBlockCommand struct {
	DocumentRef
	ParentContentID string `json:"parentContentId" validate:"required"`
	LeftID          string `json:"leftId"`
	HumanText       string `json:"humanText"`
	Verb            string `json:"verb" validate:"omitempty,oneof=DO CHOOSE READ VIEW EDIT do choose read view edit"`
}

func (c InsertBlockCommand) Validate() error { return utils.ValidateStruct(c) }

// TranscludeCommand shows existing content at a new location
type TranscludeCommand struct {
	DocumentRef
	ContentID       string `json:"contentId" validate:"required"`
	ParentContentID string `json:"parentContentId" validate:"required"`
	LeftID          string `json:"leftId"`
}

func (c TranscludeCommand) Validate() error { return utils.ValidateStruct(c) }

// MoveBlockCommand repositions a located block
type MoveBlockCommand struct {
	DocumentRef
	LocatedBlockID     string `json:"locatedBlockId" validate:"required"`
	NewParentContentID string `json:"newParentContentId" validate:"required"`
	NewLeftID          string `json:"newLeftId"`
}

func (c MoveBlockCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveBlockCommand archives a located block
type RemoveBlockCommand struct {
	DocumentRef
	LocatedBlockID string `json:"locatedBlockId" validate:"required"`
}

func (c RemoveBlockCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateTextCommand replaces the text of a content everywhere it is shown
type UpdateTextCommand struct {
	DocumentRef
	ContentID string `json:"contentId" validate:"required"`
	HumanText string `json:"humanText"`
}

func (c UpdateTextCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateVerbCommand retags a content
type UpdateVerbCommand struct {
	DocumentRef
	ContentID string `json:"contentId" validate:"required"`
	Verb      string `json:"verb" validate:"required,oneof=DO CHOOSE READ VIEW EDIT do choose read view edit"`
}

func (c UpdateVerbCommand) Validate() error { return utils.ValidateStruct(c) }

// SetStatusCommand records guide progress on one location
type SetStatusCommand struct {
	DocumentRef
	LocatedBlockID string `json:"locatedBlockId" validate:"required"`
	Status         string `json:"status" validate:"required,oneof=not_started in_progress complete"`
}

func (c SetStatusCommand) Validate() error { return utils.ValidateStruct(c) }

// CreateDocumentCommand seeds a new document with a root block
type CreateDocumentCommand struct {
	DocumentID string `json:"documentId" validate:"omitempty,max=128"`
	UserID     string `json:"userId" validate:"required,max=128"`
	RootText   string `json:"rootText"`
	Verb       string `json:"verb" validate:"omitempty,oneof=DO CHOOSE READ VIEW EDIT do choose read view edit"`
}

func (c CreateDocumentCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteDocumentCommand removes a document
type DeleteDocumentCommand struct {
	DocumentRef
}

func (c DeleteDocumentCommand) Validate() error { return utils.ValidateStruct(c) }

func validate(cmd interface{}, path string) error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}
	_, err := ParsePath(path)
	return err
}

func validatePositioned(cmd interface{}, path, position string) error {
	if err := validate(cmd, path); err != nil {
		return err
	}
	_, err := ParsePosition(position)
	return err
}

// ParsePath reads a comma-separated path, reporting failures as INVALID_ARGUMENT
func ParsePath(s string) (valueobjects.Path, error) {
	p, err := valueobjects.ParsePath(s)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("path", err.Error())
	}
	return p, nil
}

// ParsePosition reads a focus position, reporting failures as INVALID_ARGUMENT
func ParsePosition(s string) (valueobjects.FocusPosition, error) {
	pos, err := valueobjects.ParseFocusPosition(s)
	if err != nil {
		return valueobjects.FocusPosition{}, pkgerrors.NewInvalidArgument("position", err.Error())
	}
	return pos, nil
}

// ParseVerb reads an optional verb name; empty means fallback
func ParseVerb(s string, fallback valueobjects.Verb) (valueobjects.Verb, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := valueobjects.ParseVerb(s)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("verb", err.Error())
	}
	return v, nil
}
