package handlers

import (
	"net/http"

	"github.com/site-studio/engine/internal/api/types"
	"github.com/site-studio/engine/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

func (h *AssistantHandler) Run(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req types.AssistantRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.assistant.Run(r.Context(), actor(r), services.RunInput{
		PageID:          pageID,
		RevisionID:      mustUUID(req.RevisionID),
		Prompt:          req.Prompt,
		SelectedBlockID: req.SelectedBlockID,
		Mode:            req.Mode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, res)
}
