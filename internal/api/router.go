package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/site-studio/engine/internal/api/handlers"
	mw "github.com/site-studio/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret       []byte
	Limiter          *mw.Limiter
	HealthHandler    *handlers.HealthHandler
	AuthHandler      *handlers.AuthHandler
	ProjectsHandler  *handlers.ProjectsHandler
	PagesHandler     *handlers.PagesHandler
	AssistantHandler *handlers.AssistantHandler
	PublishHandler   *handlers.PublishHandler
	PublicHandler    *handlers.PublicHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	if dep.Limiter != nil {
		r.Use(dep.Limiter.Middleware)
	}
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := dep.HealthHandler
	if hh == nil {
		hh = handlers.NewHealthHandler(nil)
	}
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		// Auth routes (public)
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
			ar.Post("/logout", dep.AuthHandler.Logout)
		})

		// Live pages (public)
		api.Get("/public/{projectSlug}/{pageSlug}", dep.PublicHandler.Page)

		// Editor routes
		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))
			protected.Use(mw.RequireAdmin)

			protected.Route("/projects", func(pr chi.Router) {
				pr.Get("/", dep.ProjectsHandler.List)
				pr.Post("/", dep.ProjectsHandler.Create)
				pr.Get("/{projectID}/pages", dep.ProjectsHandler.ListPages)
				pr.Post("/{projectID}/pages", dep.ProjectsHandler.CreatePage)
				pr.Patch("/{projectID}/theme", dep.ProjectsHandler.PatchTheme)
			})

			protected.Route("/pages/{pageID}", func(pg chi.Router) {
				pg.Get("/", dep.PagesHandler.EditorState)
				pg.Get("/revisions", dep.PagesHandler.Revisions)
				pg.Post("/operations", dep.PagesHandler.ApplyOperations)
				pg.Post("/rollback", dep.PagesHandler.Rollback)
				pg.Post("/selection", dep.PagesHandler.Selection)
				pg.Post("/assistant", dep.AssistantHandler.Run)
				pg.Post("/publish", dep.PublishHandler.Publish)
			})

			protected.Get("/revisions/{revisionID}", dep.PagesHandler.Revision)
		})
	})

	return r
}
