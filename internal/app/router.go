package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockgrid/stockgrid/internal/auth"
	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/observability"
	"github.com/stockgrid/stockgrid/internal/products"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
	"github.com/stockgrid/stockgrid/jobs"
	"github.com/stockgrid/stockgrid/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	ProductsHandler    *products.Handler
	ProductsAPI        *products.APIHandler
	LocationsHandler   *locations.Handler
	InventoryHandler   *inventory.Handler
	InventoryAPI       *inventory.APIHandler
	PermissionsHandler *rbac.PermissionsHandler
	Dashboard          http.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with StockGrid defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireLogin)
		if params.Dashboard != nil {
			r.Method(http.MethodGet, "/", params.Dashboard)
		} else {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/products", http.StatusSeeOther)
			})
		}
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/locations", params.LocationsHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireAny(shared.PermLocationsGenerate))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	// JSON surface. rbac answers 401 to anonymous callers.
	r.Route("/api", func(r chi.Router) {
		if params.ProductsAPI != nil {
			params.ProductsAPI.MountRoutes(r)
		}
		if params.InventoryAPI != nil {
			params.InventoryAPI.MountRoutes(r)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		data := view.TemplateData{Title: "Not found", CSRFToken: csrfToken, CurrentPath: r.URL.Path}
		if err := params.Templates.RenderStatus(w, http.StatusNotFound, "pages/errors/404.html", data); err != nil {
			http.NotFound(w, r)
		}
	})

	return r
}

// staticCacheHandler serves static assets with a one hour browser cache.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
