package products

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/platform/httpx"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// APIHandler exposes the catalog as JSON.
type APIHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewAPIHandler constructs APIHandler.
func NewAPIHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *APIHandler {
	return &APIHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes below /api.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProductsView))
		r.Get("/products", h.list)
		r.Get("/products/search", h.search)
		r.Get("/products/{id}", h.get)
		r.Get("/products/{id}/locations", h.locations)
	})
	r.With(h.rbac.RequireAll(shared.PermProductsEdit)).Post("/products", h.create)
}

func (h *APIHandler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "api create product", err)
		return
	}
	w.Header().Set("Location", "/api/products/"+strconv.FormatInt(product.ID, 10))
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	result, err := h.service.List(r.Context(), ListFilter{Page: page, PageSize: size, Search: strings.TrimSpace(q.Get("search"))})
	if err != nil {
		h.respondError(w, "api list products", err)
		return
	}
	if result.Items == nil {
		result.Items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *APIHandler) search(w http.ResponseWriter, r *http.Request) {
	lookup, err := h.service.FindByCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.respondError(w, "api search product", err)
		return
	}
	if lookup.Placements == nil {
		lookup.Placements = []Placement{}
	}
	httpx.JSON(w, http.StatusOK, lookup)
}

func (h *APIHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "api get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *APIHandler) locations(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	placements, err := h.service.Placements(r.Context(), id)
	if err != nil {
		h.respondError(w, "api product locations", err)
		return
	}
	if placements == nil {
		placements = []Placement{}
	}
	httpx.JSON(w, http.StatusOK, placements)
}

func (h *APIHandler) respondError(w http.ResponseWriter, op string, err error) {
	if !shared.IsBusiness(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.NotFound("product", "product not found"))
		return 0, false
	}
	return id, true
}
