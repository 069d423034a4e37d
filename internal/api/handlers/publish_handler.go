package handlers

import (
	"net/http"

	"github.com/site-studio/engine/internal/api/types"
	"github.com/site-studio/engine/internal/queue/tasks"
	"github.com/site-studio/engine/internal/services"
)

type PublishHandler struct {
	publisher services.PublishService
	queue     tasks.Enqueuer
}

// NewPublishHandler wires synchronous publishing and, when queue is non-nil,
// the ?async=true path through the worker.
func NewPublishHandler(publisher services.PublishService, queue tasks.Enqueuer) *PublishHandler {
	return &PublishHandler{publisher: publisher, queue: queue}
}

func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req types.PublishRequest
	if !decode(w, r, &req) {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		id, err := tasks.EnqueuePublish(r.Context(), h.queue, tasks.PublishPayload{
			PageID:       pageID.String(),
			RevisionID:   req.RevisionID,
			ActorID:      actor(r).String(),
			ApprovalNote: req.ApprovalNote,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusAccepted, types.QueuedPublish{TaskID: id})
		return
	}

	res, err := h.publisher.Publish(r.Context(), actor(r), services.PublishInput{
		PageID:       pageID,
		RevisionID:   mustUUID(req.RevisionID),
		ApprovalNote: req.ApprovalNote,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, res)
}
