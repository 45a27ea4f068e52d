package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	intelhttp "github.com/oneview-energy/oneview/internal/intelligence/http"
	"github.com/oneview-energy/oneview/internal/observability"
)

// RouterConfig aggregates everything the HTTP surface needs.
type RouterConfig struct {
	Middleware   MiddlewareConfig
	Intelligence *intelhttp.Handler
	Metrics      *observability.Metrics
}

// NewRouter builds the service router: middleware stack, health and metrics
// endpoints, and the intelligence API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	cfg.Intelligence.MountRoutes(r)
	return r
}
