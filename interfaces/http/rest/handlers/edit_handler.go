package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dnsosebee/methodable-sub000/application/commands"
)

// bind decodes the body into cmd and points ref at the document in the URL.
// The URL and the caller always win over ids in the body.
func (h *DocumentHandler) bind(w http.ResponseWriter, r *http.Request, ref *commands.DocumentRef, cmd interface{}) bool {
	if err := decode(w, r, cmd); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	*ref = h.ref(r)
	return true
}

// Enter handles POST /documents/{documentID}/edits/enter
func (h *DocumentHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var cmd commands.EnterCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusOK, cmd)
	}
}

// Backspace handles POST /documents/{documentID}/edits/backspace
func (h *DocumentHandler) Backspace(w http.ResponseWriter, r *http.Request) {
	var cmd commands.BackspaceCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusOK, cmd)
	}
}

// Indent handles POST /documents/{documentID}/edits/indent
func (h *DocumentHandler) Indent(w http.ResponseWriter, r *http.Request) {
	var cmd commands.IndentCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusOK, cmd)
	}
}

// Outdent handles POST /documents/{documentID}/edits/outdent
func (h *DocumentHandler) Outdent(w http.ResponseWriter, r *http.Request) {
	var cmd commands.OutdentCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusOK, cmd)
	}
}

// Paste handles POST /documents/{documentID}/edits/paste
func (h *DocumentHandler) Paste(w http.ResponseWriter, r *http.Request) {
	var cmd commands.PasteCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusOK, cmd)
	}
}

// InsertBlock handles POST /documents/{documentID}/blocks
func (h *DocumentHandler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	var cmd commands.InsertBlockCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusCreated, cmd)
	}
}

// Transclude handles POST /documents/{documentID}/blocks/transclude
func (h *DocumentHandler) Transclude(w http.ResponseWriter, r *http.Request) {
	var cmd commands.TranscludeCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		h.send(w, r, http.StatusCreated, cmd)
	}
}

// MoveBlock handles POST /documents/{documentID}/blocks/{locatedBlockID}/move
func (h *DocumentHandler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	var cmd commands.MoveBlockCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		cmd.LocatedBlockID = chi.URLParam(r, "locatedBlockID")
		h.send(w, r, http.StatusOK, cmd)
	}
}

// RemoveBlock handles DELETE /documents/{documentID}/blocks/{locatedBlockID}
func (h *DocumentHandler) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.RemoveBlockCommand{
		DocumentRef:    h.ref(r),
		LocatedBlockID: chi.URLParam(r, "locatedBlockID"),
	})
}

// SetStatus handles PUT /documents/{documentID}/blocks/{locatedBlockID}/status
func (h *DocumentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetStatusCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		cmd.LocatedBlockID = chi.URLParam(r, "locatedBlockID")
		h.send(w, r, http.StatusOK, cmd)
	}
}

// UpdateText handles PUT /documents/{documentID}/contents/{contentID}/text
func (h *DocumentHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateTextCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		cmd.ContentID = chi.URLParam(r, "contentID")
		h.send(w, r, http.StatusOK, cmd)
	}
}

// UpdateVerb handles PUT /documents/{documentID}/contents/{contentID}/verb
func (h *DocumentHandler) UpdateVerb(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateVerbCommand
	if h.bind(w, r, &cmd.DocumentRef, &cmd) {
		cmd.ContentID = chi.URLParam(r, "contentID")
		h.send(w, r, http.StatusOK, cmd)
	}
}
