package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/site-studio/engine/internal/api/types"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/services"
)

type PagesHandler struct {
	revisions services.RevisionService
}

func NewPagesHandler(revisions services.RevisionService) *PagesHandler {
	return &PagesHandler{revisions: revisions}
}

// EditorState returns the page with everything the editor shows next to it.
func (h *PagesHandler) EditorState(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	state, err := h.revisions.GetEditorState(r.Context(), actor(r), pageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, state)
}

func (h *PagesHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	revs, err := h.revisions.ListRevisions(r.Context(), actor(r), pageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, revs)
}

func (h *PagesHandler) Revision(w http.ResponseWriter, r *http.Request) {
	revID, ok := pathID(w, r, "revisionID")
	if !ok {
		return
	}
	rev, err := h.revisions.GetRevision(r.Context(), actor(r), revID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, rev)
}

func (h *PagesHandler) ApplyOperations(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req types.OperationsRequest
	if !decode(w, r, &req) {
		return
	}
	var raw any
	if len(req.Operations) > 0 {
		if err := json.Unmarshal(req.Operations, &raw); err != nil {
			writeErrorStr(w, r, "invalid operations")
			return
		}
	}
	source := req.Source
	if source == "" {
		source = models.SourceVisual
	}
	res, err := h.revisions.ApplyOperations(r.Context(), actor(r), services.ApplyInput{
		PageID:         pageID,
		BaseRevisionID: mustUUID(req.BaseRevisionID),
		Operations:     dsl.NormalizeOperations(raw),
		ChangeSummary:  req.ChangeSummary,
		Source:         source,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, res)
}

func (h *PagesHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req types.RollbackRequest
	if !decode(w, r, &req) {
		return
	}
	rev, err := h.revisions.Rollback(r.Context(), actor(r), pageID, mustUUID(req.TargetRevisionID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, rev)
}

func (h *PagesHandler) Selection(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req types.SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := h.revisions.SelectBlock(r.Context(), actor(r), services.SelectionInput{
		PageID:           pageID,
		Mode:             req.Mode,
		SelectedBlockID:  req.SelectedBlockID,
		LastPrompt:       req.LastPrompt,
		ContextWindowRef: req.ContextWindowRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, session)
}
