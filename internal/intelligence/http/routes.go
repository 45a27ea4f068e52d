package intelhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the intelligence endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	exportLimiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/api/projects", h.handleProjects)
	r.Get("/api/exports/{jobID}", h.handleExportStatus)

	r.Route("/api/intelligence/{page}", func(pr chi.Router) {
		pr.Get("/modules", h.handleModules)
		pr.Get("/structure", h.handleStructure)
		pr.Post("/selection", h.handleSelectionApply)
		pr.Delete("/selection", h.handleSelectionReset)
		pr.Get("/table", h.handleTable)
		pr.Put("/edits", h.handleEditSet)
		pr.Delete("/edits", h.handleEditsClear)
		pr.Post("/save", h.handleSave)
		pr.Group(func(er chi.Router) {
			er.Use(exportLimiter)
			er.Post("/export", h.handleExport)
			er.Post("/export/pdf", h.handlePDF)
		})
	})
}

func pathValue(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
