package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/commands"
	"github.com/dnsosebee/methodable-sub000/application/commands/bus"
	"github.com/dnsosebee/methodable-sub000/application/queries"
	querybus "github.com/dnsosebee/methodable-sub000/application/queries/bus"
	"github.com/dnsosebee/methodable-sub000/interfaces/http/rest/middleware"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// DocumentHandler serves documents and their edits over HTTP
type DocumentHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ref names the document in the URL and the caller in the context
func (h *DocumentHandler) ref(r *http.Request) commands.DocumentRef {
	return commands.DocumentRef{
		DocumentID: chi.URLParam(r, "documentID"),
		UserID:     middleware.UserIDFromContext(r.Context()),
	}
}

func (h *DocumentHandler) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, h.logger, status, result)
}

func (h *DocumentHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// ListDocuments handles GET /documents. ?owner= filters by owner; "me"
// means the caller.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "me" {
		owner = middleware.UserIDFromContext(r.Context())
	}
	h.ask(w, r, queries.ListDocumentsQuery{OwnerID: owner})
}

// CreateDocumentRequest is the body of POST /documents
type CreateDocumentRequest struct {
	DocumentID string `json:"documentId,omitempty"`
	RootText   string `json:"rootText,omitempty"`
	Verb       string `json:"verb,omitempty"`
}

// CreateDocument handles POST /documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := decode(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusCreated, commands.CreateDocumentCommand{
		DocumentID: req.DocumentID,
		UserID:     middleware.UserIDFromContext(r.Context()),
		RootText:   req.RootText,
		Verb:       req.Verb,
	})
}

// GetDocument handles GET /documents/{documentID}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetDocumentQuery{ID: chi.URLParam(r, "documentID")})
}

// DeleteDocument handles DELETE /documents/{documentID}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusNoContent, commands.DeleteDocumentCommand{DocumentRef: h.ref(r)})
}

// GetOutline handles GET /documents/{documentID}/outline?path=&depth=
func (h *DocumentHandler) GetOutline(w http.ResponseWriter, r *http.Request) {
	depth, err := intParam(r, "depth")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetOutlineQuery{
		ID:       chi.URLParam(r, "documentID"),
		Path:     r.URL.Query().Get("path"),
		MaxDepth: depth,
	})
}

// GetNeighbor handles GET /documents/{documentID}/neighbor?path=&direction=
func (h *DocumentHandler) GetNeighbor(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetNeighborQuery{
		ID:        chi.URLParam(r, "documentID"),
		Path:      r.URL.Query().Get("path"),
		Direction: r.URL.Query().Get("direction"),
	})
}

// CheckDocument handles GET /documents/{documentID}/check
func (h *DocumentHandler) CheckDocument(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.CheckDocumentQuery{ID: chi.URLParam(r, "documentID")})
}
