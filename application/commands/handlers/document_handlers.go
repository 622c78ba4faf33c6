package handlers

import (
	"context"
	"fmt"

	"github.com/dnsosebee/methodable-sub000/application/commands"
	"github.com/dnsosebee/methodable-sub000/application/commands/bus"
	"github.com/dnsosebee/methodable-sub000/application/ports"
	appservices "github.com/dnsosebee/methodable-sub000/application/services"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/validators"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/services"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
	"go.uber.org/zap"
)

// InsertBlockResult is returned for commands that mint new ids
type InsertBlockResult struct {
	*appservices.DispatchResult
	LocatedBlockID string `json:"locatedBlockId"`
	ContentID      string `json:"contentId,omitempty"`
}

// DocumentHandlers executes every document command through the store
type DocumentHandlers struct {
	store  *appservices.DocumentStore
	editor *services.Editor
	ids    ports.IDGenerator
	text   *validators.TextValidator
	logger *zap.Logger
}

// NewDocumentHandlers creates the handler set
func NewDocumentHandlers(
	store *appservices.DocumentStore,
	editor *services.Editor,
	ids ports.IDGenerator,
	logger *zap.Logger,
) *DocumentHandlers {
	return &DocumentHandlers{
		store:  store,
		editor: editor,
		ids:    ids,
		text:   validators.NewTextValidator(store.Config()),
		logger: logger,
	}
}

// Register binds each command type to its handler
func (h *DocumentHandlers) Register(b *bus.CommandBus) error {
	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.EnterCommand{}, h.handleEnter},
		{commands.BackspaceCommand{}, h.handleBackspace},
		{commands.IndentCommand{}, h.handleIndent},
		{commands.OutdentCommand{}, h.handleOutdent},
		{commands.PasteCommand{}, h.handlePaste},
		{commands.InsertBlockCommand{}, h.handleInsertBlock},
		{commands.TranscludeCommand{}, h.handleTransclude},
		{commands.MoveBlockCommand{}, h.handleMoveBlock},
		{commands.RemoveBlockCommand{}, h.handleRemoveBlock},
		{commands.UpdateTextCommand{}, h.handleUpdateText},
		{commands.UpdateVerbCommand{}, h.handleUpdateVerb},
		{commands.SetStatusCommand{}, h.handleSetStatus},
		{commands.CreateDocumentCommand{}, h.handleCreateDocument},
		{commands.DeleteDocumentCommand{}, h.handleDeleteDocument},
	}
	for _, r := range routes {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *DocumentHandlers) dispatch(ctx context.Context, ref commands.DocumentRef, operation string, mutate appservices.Mutation) (interface{}, error) {
	result, err := h.store.Dispatch(ctx, ref.DocumentID, ref.UserID, operation, mutate)
	if err != nil {
		return nil, err
	}
	if result.RolledBack {
		h.logger.Debug("Edit rolled back",
			zap.String("document_id", ref.DocumentID),
			zap.String("operation", operation),
		)
	}
	return result, nil
}

func (h *DocumentHandlers) handleEnter(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.EnterCommand)
	path, err := commands.ParsePath(cmd.Path)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "enter", func(g *aggregates.Graph, root valueobjects.BlockContentID) (services.EditResult, error) {
		return h.editor.Enter(g, root, path, cmd.LeftText, cmd.RightText)
	})
}

func (h *DocumentHandlers) handleBackspace(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.BackspaceCommand)
	path, err := commands.ParsePath(cmd.Path)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "backspace", func(g *aggregates.Graph, root valueobjects.BlockContentID) (services.EditResult, error) {
		return h.editor.Backspace(g, root, path)
	})
}

func (h *DocumentHandlers) handleIndent(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.IndentCommand)
	path, pos, err := parsePositioned(cmd.Path, cmd.Position)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "indent", func(g *aggregates.Graph, root valueobjects.BlockContentID) (services.EditResult, error) {
		return h.editor.Indent(g, root, path, pos)
	})
}

func (h *DocumentHandlers) handleOutdent(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.OutdentCommand)
	path, pos, err := parsePositioned(cmd.Path, cmd.Position)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "outdent", func(g *aggregates.Graph, root valueobjects.BlockContentID) (services.EditResult, error) {
		return h.editor.Outdent(g, root, path, pos)
	})
}

func (h *DocumentHandlers) handlePaste(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.PasteCommand)
	path, err := commands.ParsePath(cmd.Path)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "paste", func(g *aggregates.Graph, root valueobjects.BlockContentID) (services.EditResult, error) {
		return h.editor.Paste(g, root, path, cmd.Before, cmd.After, cmd.Clipboard)
	})
}

func (h *DocumentHandlers) handleInsertBlock(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.InsertBlockCommand)
	parentID, leftID, err := parsePlacement(cmd.ParentContentID, cmd.LeftID)
	if err != nil {
		return nil, err
	}
	if err := h.text.ValidateHumanText(cmd.HumanText); err != nil {
		return nil, err
	}
	verb, err := commands.ParseVerb(cmd.Verb, nil)
	if err != nil {
		return nil, err
	}

	newLocatedID := h.ids.NewLocatedBlockID()
	newContentID := h.ids.NewBlockContentID()
	result, err := h.dispatch(ctx, cmd.DocumentRef, "insert_block", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		if verb == nil {
			parent, err := g.BlockContent(parentID)
			if err != nil {
				return services.EditResult{}, err
			}
			verb = parent.Verb().DefaultChildVerb()
		}
		ng, err := g.InsertNewBlock(leftID, parentID, cmd.HumanText, verb, newLocatedID, newContentID)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
	if err != nil {
		return nil, err
	}
	return &InsertBlockResult{
		DispatchResult: result.(*appservices.DispatchResult),
		LocatedBlockID: newLocatedID.String(),
		ContentID:      newContentID.String(),
	}, nil
}

func (h *DocumentHandlers) handleTransclude(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.TranscludeCommand)
	if !h.store.Config().EnableTransclusion {
		return nil, pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "TRANSCLUSION_DISABLED", "Transclusion is turned off")
	}
	contentID, err := valueobjects.NewBlockContentID(cmd.ContentID)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("contentId", err.Error())
	}
	parentID, leftID, err := parsePlacement(cmd.ParentContentID, cmd.LeftID)
	if err != nil {
		return nil, err
	}

	newLocatedID := h.ids.NewLocatedBlockID()
	result, err := h.dispatch(ctx, cmd.DocumentRef, "transclude", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		ng, err := g.InsertNewLocatedBlock(leftID, parentID, contentID, newLocatedID)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
	if err != nil {
		return nil, err
	}
	return &InsertBlockResult{
		DispatchResult: result.(*appservices.DispatchResult),
		LocatedBlockID: newLocatedID.String(),
	}, nil
}

func (h *DocumentHandlers) handleMoveBlock(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.MoveBlockCommand)
	locatedID, err := parseLocatedID("locatedBlockId", cmd.LocatedBlockID)
	if err != nil {
		return nil, err
	}
	parentID, leftID, err := parsePlacement(cmd.NewParentContentID, cmd.NewLeftID)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "move_block", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		ng, err := g.MoveLocatedBlock(locatedID, leftID, parentID)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
}

func (h *DocumentHandlers) handleRemoveBlock(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.RemoveBlockCommand)
	locatedID, err := parseLocatedID("locatedBlockId", cmd.LocatedBlockID)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "remove_block", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		located, err := g.LocatedBlock(locatedID)
		if err != nil {
			return services.EditResult{}, err
		}
		if located.IsRoot() {
			return services.EditResult{}, pkgerrors.NewInvalidArgument("locatedBlockId", "the document root cannot be removed")
		}
		ng, err := g.RemoveLocatedBlock(locatedID)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
}

func (h *DocumentHandlers) handleUpdateText(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.UpdateTextCommand)
	contentID, err := valueobjects.NewBlockContentID(cmd.ContentID)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("contentId", err.Error())
	}
	if err := h.text.ValidateHumanText(cmd.HumanText); err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "update_text", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		ng, err := g.UpdateHumanText(contentID, cmd.HumanText)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
}

func (h *DocumentHandlers) handleUpdateVerb(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.UpdateVerbCommand)
	contentID, err := valueobjects.NewBlockContentID(cmd.ContentID)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("contentId", err.Error())
	}
	verb, err := commands.ParseVerb(cmd.Verb, valueobjects.VerbDo)
	if err != nil {
		return nil, err
	}
	return h.dispatch(ctx, cmd.DocumentRef, "update_verb", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		ng, err := g.UpdateVerb(contentID, verb)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
}

func (h *DocumentHandlers) handleSetStatus(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.SetStatusCommand)
	if !h.store.Config().EnableGuideStatus {
		return nil, pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "GUIDE_STATUS_DISABLED", "Guide status tracking is turned off")
	}
	locatedID, err := parseLocatedID("locatedBlockId", cmd.LocatedBlockID)
	if err != nil {
		return nil, err
	}
	status, err := valueobjects.ParseBlockStatus(cmd.Status)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgument("status", err.Error())
	}
	return h.dispatch(ctx, cmd.DocumentRef, "set_status", func(g *aggregates.Graph, _ valueobjects.BlockContentID) (services.EditResult, error) {
		ng, err := g.UpdateBlockStatus(locatedID, status)
		if err != nil {
			return services.EditResult{}, err
		}
		return services.EditResult{Graph: ng}, nil
	})
}

func (h *DocumentHandlers) handleCreateDocument(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.CreateDocumentCommand)
	if err := h.text.ValidateHumanText(cmd.RootText); err != nil {
		return nil, err
	}
	verb, err := commands.ParseVerb(cmd.Verb, valueobjects.VerbDo)
	if err != nil {
		return nil, err
	}
	doc, err := h.store.Create(ctx, cmd.DocumentID, cmd.UserID, cmd.RootText, verb)
	if err != nil {
		return nil, err
	}
	return ports.Summarize(doc), nil
}

func (h *DocumentHandlers) handleDeleteDocument(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(commands.DeleteDocumentCommand)
	if err := h.store.Delete(ctx, cmd.DocumentID); err != nil {
		return nil, err
	}
	h.logger.Info("Document deleted",
		zap.String("document_id", cmd.DocumentID),
		zap.String("user_id", cmd.UserID),
	)
	return nil, nil
}

func parsePositioned(rawPath, rawPosition string) (valueobjects.Path, valueobjects.FocusPosition, error) {
	path, err := commands.ParsePath(rawPath)
	if err != nil {
		return nil, valueobjects.FocusPosition{}, err
	}
	pos, err := commands.ParsePosition(rawPosition)
	if err != nil {
		return nil, valueobjects.FocusPosition{}, err
	}
	return path, pos, nil
}

// parsePlacement reads a parent content id and an optional left sibling id
func parsePlacement(rawParent, rawLeft string) (valueobjects.BlockContentID, valueobjects.LocatedBlockID, error) {
	parentID, err := valueobjects.NewBlockContentID(rawParent)
	if err != nil {
		return valueobjects.BlockContentID{}, valueobjects.LocatedBlockID{}, pkgerrors.NewInvalidArgument("parentContentId", err.Error())
	}
	if rawLeft == "" {
		return parentID, valueobjects.LocatedBlockID{}, nil
	}
	leftID, err := parseLocatedID("leftId", rawLeft)
	if err != nil {
		return valueobjects.BlockContentID{}, valueobjects.LocatedBlockID{}, err
	}
	return parentID, leftID, nil
}

func parseLocatedID(field, raw string) (valueobjects.LocatedBlockID, error) {
	id, err := valueobjects.NewLocatedBlockID(raw)
	if err != nil {
		return valueobjects.LocatedBlockID{}, pkgerrors.NewInvalidArgument(field, fmt.Sprintf("%s: %v", raw, err))
	}
	return id, nil
}
