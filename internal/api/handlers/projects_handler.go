package handlers

import (
	"net/http"
	"strconv"

	"github.com/site-studio/engine/internal/api/types"
	"github.com/site-studio/engine/internal/services"
)

type ProjectsHandler struct {
	projects  services.ProjectService
	revisions services.RevisionService
	themes    services.ThemeService
}

func NewProjectsHandler(projects services.ProjectService, revisions services.RevisionService, themes services.ThemeService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, revisions: revisions, themes: themes}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.ListProjects(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items[start:end],
		Meta:    &types.Meta{Page: page, PageSize: size, Total: int64(len(items))},
	})
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectCreateRequest
	if !decode(w, r, &req) {
		return
	}
	p, theme, err := h.projects.CreateProject(r.Context(), actor(r), &services.CreateProjectInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, map[string]any{"project": p, "theme": theme})
}

func (h *ProjectsHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	pages, err := h.revisions.ListPages(r.Context(), actor(r), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, pages)
}

func (h *ProjectsHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var req types.PageCreateRequest
	if !decode(w, r, &req) {
		return
	}
	page, rev, err := h.revisions.CreatePage(r.Context(), actor(r), projectID, services.CreatePageInput{
		Title:         req.Title,
		Slug:          req.Slug,
		InitialPrompt: req.InitialPrompt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, map[string]any{"page": page, "revision": rev})
}

func (h *ProjectsHandler) PatchTheme(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var req types.ThemePatchRequest
	if !decode(w, r, &req) {
		return
	}
	in := services.PatchThemeInput{
		TokenPatch:      req.TokenPatch,
		Name:            req.Name,
		ApplyToAllPages: req.ApplyToAllPages,
	}
	if req.ThemeID != "" {
		id := mustUUID(req.ThemeID)
		in.ThemeID = &id
	}
	res, err := h.themes.Patch(r.Context(), actor(r), projectID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, res)
}
