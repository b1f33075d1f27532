package locations

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockgrid/stockgrid/internal/locations/svg"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
)

// GenerationScheduler queues a registry generation run in the background.
type GenerationScheduler interface {
	ScheduleGenerate(ctx context.Context, actorID int64) error
}

// Handler serves the registry pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	scheduler GenerationScheduler
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler constructs the registry handler. Without a scheduler generation
// runs inside the request.
func NewHandler(logger *slog.Logger, service *Service, scheduler GenerationScheduler, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, scheduler: scheduler, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLocationsView))
		r.Get("/", h.list)
		r.Get("/map", h.showMap)
		r.Get("/{id}", h.detail)
	})
	r.With(h.rbac.RequireAll(shared.PermLocationsGenerate)).Post("/generate", h.generate)
}

type listPageData struct {
	Locations []Location
	Filter    ListFilter
	Aisles    []int
}

type mapPageData struct {
	View MapView
	SVG  template.HTML
}

type detailPageData struct {
	Detail     Detail
	Capacity   int
	RequestKey string
	ReturnTo   string
	CanEdit    bool
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	locs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list locations", err)
		return
	}
	aisles := make([]int, 0, Aisles)
	for a := 1; a <= Aisles; a++ {
		aisles = append(aisles, a)
	}
	h.render(w, r, "pages/locations/list.html", "Locations", listPageData{Locations: locs, Filter: filter, Aisles: aisles})
}

func (h *Handler) showMap(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	mv, err := h.service.Map(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "warehouse map", err)
		return
	}
	markup, err := renderMap(mv)
	if err != nil {
		h.fail(w, r, "render map", err)
		return
	}
	h.render(w, r, "pages/locations/map.html", "Warehouse map", mapPageData{View: mv, SVG: markup})
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, "location detail", shared.NotFound("location", "location not found"))
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, "location detail", err)
		return
	}
	data := detailPageData{
		Detail:     detail,
		Capacity:   NominalCapacity,
		RequestKey: uuid.NewString(),
		ReturnTo:   r.URL.Path,
		CanEdit:    h.can(r, shared.PermInventoryEdit),
	}
	h.render(w, r, "pages/locations/detail.html", detail.Location.Label(), data)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := shared.CurrentUserID(r.Context())
	sess := shared.SessionFromContext(r.Context())
	flash := shared.FlashMessage{Kind: "success"}
	if h.scheduler != nil {
		if err := h.scheduler.ScheduleGenerate(r.Context(), actorID); err != nil {
			h.logger.Error("schedule location generation", slog.Any("error", err))
			flash = shared.FlashMessage{Kind: "danger", Message: shared.UserSafeMessage(err)}
		} else {
			flash.Message = "Location generation queued."
		}
	} else {
		result, err := h.service.Generate(r.Context(), actorID)
		if err != nil {
			if !shared.IsBusiness(err) {
				h.logger.Error("generate locations", slog.Any("error", err))
			}
			flash = shared.FlashMessage{Kind: "danger", Message: shared.UserSafeMessage(err)}
		} else {
			flash.Message = strconv.Itoa(result.Inserted) + " locations created, " + strconv.Itoa(result.Total) + " in total."
		}
	}
	if sess != nil {
		sess.AddFlash(flash)
	}
	http.Redirect(w, r, "/locations", http.StatusSeeOther)
}

func (h *Handler) can(r *http.Request, perm string) bool {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok || h.rbac.Service == nil {
		return false
	}
	granted, err := h.rbac.Service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		return false
	}
	for _, p := range granted {
		if p == perm {
			return true
		}
	}
	return false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.renderStatus(w, r, "pages/errors/404.html", "Not found", shared.UserSafeMessage(err), http.StatusNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	h.renderStatus(w, r, name, title, data, http.StatusOK)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
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

func parseFilter(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{Search: strings.TrimSpace(q.Get("search"))}
	if aisle, err := strconv.Atoi(q.Get("aisle")); err == nil && aisle >= 1 && aisle <= Aisles {
		filter.Aisle = aisle
	}
	if side := Side(strings.ToLower(q.Get("side"))); side.Valid() {
		filter.Side = side
	}
	return filter
}

func renderMap(mv MapView) (template.HTML, error) {
	slots := make([]svg.Slot, 0, mv.Total)
	highlight := map[string]bool{}
	for _, aisle := range mv.Aisles {
		for _, group := range [][]Cell{aisle.Left, aisle.Right} {
			for _, cell := range group {
				slots = append(slots, svg.Slot{
					ID:       cell.ID,
					Code:     cell.Code,
					Aisle:    cell.Aisle,
					Right:    cell.Side == SideRight,
					Rack:     rackIndex(cell.Letter),
					Level:    cell.Level,
					Occupied: cell.Occupied,
					Products: cell.ProductCount,
				})
				if mv.Search != "" {
					highlight[cell.Code] = true
				}
			}
		}
	}
	return svg.Map(Aisles, RacksPerSide, Levels, slots, svg.MapOpts{
		Title:       "Warehouse map",
		Description: strconv.Itoa(mv.Occupied) + " of " + strconv.Itoa(mv.Total) + " locations occupied",
		Link: func(id int64) string {
			return "/locations/" + strconv.FormatInt(id, 10)
		},
		Highlight: highlight,
	})
}

func rackIndex(letter string) int {
	side, ok := SideOf(letter)
	if !ok {
		return 0
	}
	for i, l := range side.Letters() {
		if l == strings.ToUpper(letter) {
			return i
		}
	}
	return 0
}
