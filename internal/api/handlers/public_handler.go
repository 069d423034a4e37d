package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/site-studio/engine/internal/artifact"
	"github.com/site-studio/engine/internal/services"
)

// PublicHandler serves live pages without authentication.
type PublicHandler struct {
	projects services.ProjectService
	renderer *artifact.Renderer
}

func NewPublicHandler(projects services.ProjectService, renderer *artifact.Renderer) *PublicHandler {
	if renderer == nil {
		renderer = artifact.NewRenderer()
	}
	return &PublicHandler{projects: projects, renderer: renderer}
}

// Page returns the published page as JSON, or as rendered HTML with
// ?format=html.
func (h *PublicHandler) Page(w http.ResponseWriter, r *http.Request) {
	live, err := h.projects.GetPublishedPage(r.Context(), chi.URLParam(r, "projectSlug"), chi.URLParam(r, "pageSlug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") != "html" {
		writeOK(w, r, http.StatusOK, live)
		return
	}
	out, err := h.renderer.Render(live.Document, live.Tokens, artifact.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
