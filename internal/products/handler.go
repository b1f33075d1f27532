package products

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/platform/httpx"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
)

// HistorySource lists ledger history for a product.
type HistorySource interface {
	History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.HistoryView, error)
}

// Handler serves the catalog pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	history   HistorySource
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, history HistorySource, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, history: history, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProductsView))
		r.Get("/", h.list)
		r.Get("/search", h.search)
		r.Get("/{id}", h.detail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermProductsEdit))
		r.Get("/new", h.showCreate)
		r.Post("/", h.create)
	})
}

type listPageData struct {
	Page       Page
	Search     string
	Pagination shared.Pagination
}

type formPageData struct {
	Form   CreateInput
	Errors map[string]string
}

type detailPageData struct {
	Product    Product
	Placements []Placement
	Assigned   int
	History    []inventory.HistoryView
}

type searchPageData struct {
	Code   string
	Result *Lookup
	Error  string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	search := strings.TrimSpace(q.Get("search"))
	result, err := h.service.List(r.Context(), ListFilter{Page: page, Search: search})
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	data := listPageData{
		Page:       result,
		Search:     search,
		Pagination: shared.NewPagination(result.Page, result.PageSize, result.Total),
	}
	h.render(w, r, "pages/products/list.html", "Products", data, http.StatusOK)
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/products/new.html", "New product", formPageData{Errors: map[string]string{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form, errs := parseCreateForm(r)
	status := http.StatusBadRequest
	if len(errs) == 0 {
		product, err := h.service.Create(r.Context(), form)
		if err == nil {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Product " + product.Name + " registered."})
			}
			http.Redirect(w, r, "/products/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
			return
		}
		if !shared.IsBusiness(err) {
			h.logger.Error("create product", slog.Any("error", err))
		}
		status = httpx.StatusFor(err)
		var verr *shared.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			errs[verr.Field] = verr.Message
		} else {
			errs["general"] = shared.UserSafeMessage(err)
		}
	}
	h.render(w, r, "pages/products/new.html", "New product", formPageData{Form: form, Errors: errs}, status)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, "product detail", shared.NotFound("product", "product not found"))
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "product detail", err)
		return
	}
	placements, err := h.service.Placements(r.Context(), id)
	if err != nil {
		h.fail(w, r, "product placements", err)
		return
	}
	history, err := h.history.History(r.Context(), inventory.HistoryFilter{ProductID: id, Limit: 50})
	if err != nil {
		h.fail(w, r, "product history", err)
		return
	}
	lookup := Lookup{Product: product, Placements: placements}
	data := detailPageData{Product: product, Placements: placements, Assigned: lookup.AssignedUnits(), History: history}
	h.render(w, r, "pages/products/detail.html", product.Name, data, http.StatusOK)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	data := searchPageData{Code: code}
	status := http.StatusOK
	if code != "" {
		lookup, err := h.service.FindByCode(r.Context(), code)
		switch {
		case err == nil:
			data.Result = &lookup
		case errors.Is(err, shared.ErrNotFound):
			data.Error = "No product uses code " + code + "."
			status = http.StatusNotFound
		default:
			if !shared.IsBusiness(err) {
				h.logger.Error("search product", slog.Any("error", err))
			}
			data.Error = shared.UserSafeMessage(err)
			status = http.StatusBadRequest
		}
	}
	h.render(w, r, "pages/products/search.html", "Find by code", data, status)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.render(w, r, "pages/errors/404.html", "Not found", shared.UserSafeMessage(err), http.StatusNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.RenderStatus(w, status, name, viewData); err != nil {
		h.logger.Error("render "+name, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func parseCreateForm(r *http.Request) (CreateInput, map[string]string) {
	errors := make(map[string]string)
	form := CreateInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Barcode:     strings.TrimSpace(r.PostFormValue("barcode")),
		QRCode:      strings.TrimSpace(r.PostFormValue("qr_code")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("total_quantity")); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			errors["total_quantity"] = "Total quantity must be a whole number."
		} else {
			form.TotalQuantity = qty
		}
	}
	return form, errors
}
