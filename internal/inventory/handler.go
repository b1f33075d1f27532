package inventory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// Handler wires the ledger form endpoints. The forms themselves are part of
// the location detail page, so every POST redirects back with a flash.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	locations LocationResolver
	rbac      rbac.Middleware
}

// LocationResolver turns a typed location code into a registry entry.
type LocationResolver interface {
	ResolveCode(ctx context.Context, code string) (locations.Location, error)
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, resolver LocationResolver, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, locations: resolver, rbac: rbac}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInventoryEdit))
		r.Post("/assignments", h.handleAssign)
		r.Post("/assignments/{id}/quantity", h.handleAdjust)
		r.Post("/assignments/{id}/delete", h.handleRemove)
		r.Post("/transfers", h.handleTransfer)
	})
}

type assignForm struct {
	ProductID  int64
	LocationID int64
	Quantity   int
}

type transferForm struct {
	ProductID        int64
	SourceLocationID int64
	DestLocationID   int64
	Quantity         int
	RequestKey       string
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form, errs := parseAssignForm(r)
	if len(errs) > 0 {
		h.finish(w, r, firstError(errs), "")
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	_, err := h.service.Assign(r.Context(), AssignInput{
		ProductID:  form.ProductID,
		LocationID: form.LocationID,
		Quantity:   form.Quantity,
		ActorID:    actorID,
	})
	h.finish(w, r, h.failure("assign", err), "Product assigned to location.")
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		h.finish(w, r, "Quantity must be a whole number.", "")
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	_, err = h.service.AdjustQuantity(r.Context(), AdjustInput{AssignmentID: id, Quantity: qty, ActorID: actorID})
	h.finish(w, r, h.failure("adjust", err), "Quantity updated.")
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	_, err = h.service.Remove(r.Context(), RemoveInput{AssignmentID: id, ActorID: actorID})
	h.finish(w, r, h.failure("remove", err), "Assignment removed.")
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form, errs := parseTransferForm(r)
	if code := strings.TrimSpace(r.PostFormValue("dest_code")); code != "" && form.DestLocationID == 0 {
		loc, err := h.locations.ResolveCode(r.Context(), code)
		if err != nil {
			h.finish(w, r, h.failure("resolve destination", err), "")
			return
		}
		form.DestLocationID = loc.ID
		delete(errs, "dest_location_id")
	}
	if len(errs) > 0 {
		h.finish(w, r, firstError(errs), "")
		return
	}
	actorID, _ := shared.CurrentUserID(r.Context())
	_, err := h.service.Transfer(r.Context(), TransferInput{
		ProductID:        form.ProductID,
		SourceLocationID: form.SourceLocationID,
		DestLocationID:   form.DestLocationID,
		Quantity:         form.Quantity,
		ActorID:          actorID,
		RequestKey:       form.RequestKey,
	})
	h.finish(w, r, h.failure("transfer", err), "Stock transferred.")
}

func (h *Handler) failure(op string, err error) string {
	if err == nil {
		return ""
	}
	if !shared.IsBusiness(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	return shared.UserSafeMessage(err)
}

// finish queues the outcome as a flash and redirects to return_to.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, failure, success string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if failure != "" {
			sess.AddFlash(shared.FlashMessage{Kind: "danger", Message: failure})
		} else {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: success})
		}
	}
	http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
}

func returnTo(r *http.Request) string {
	target := strings.TrimSpace(r.PostFormValue("return_to"))
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/locations"
	}
	return target
}

func parseAssignForm(r *http.Request) (assignForm, map[string]string) {
	errors := make(map[string]string)
	var form assignForm
	if id, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64); err == nil && id > 0 {
		form.ProductID = id
	} else {
		errors["product_id"] = "Select a product."
	}
	if id, err := strconv.ParseInt(r.PostFormValue("location_id"), 10, 64); err == nil && id > 0 {
		form.LocationID = id
	} else {
		errors["location_id"] = "Location is required."
	}
	if qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity"))); err == nil {
		form.Quantity = qty
	} else {
		errors["quantity"] = "Quantity must be a whole number."
	}
	return form, errors
}

func parseTransferForm(r *http.Request) (transferForm, map[string]string) {
	errors := make(map[string]string)
	form := transferForm{RequestKey: strings.TrimSpace(r.PostFormValue("request_key"))}
	if id, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64); err == nil && id > 0 {
		form.ProductID = id
	} else {
		errors["product_id"] = "Select a product."
	}
	if id, err := strconv.ParseInt(r.PostFormValue("source_location_id"), 10, 64); err == nil && id > 0 {
		form.SourceLocationID = id
	} else {
		errors["source_location_id"] = "Source location is required."
	}
	if id, err := strconv.ParseInt(r.PostFormValue("dest_location_id"), 10, 64); err == nil && id > 0 {
		form.DestLocationID = id
	} else {
		errors["dest_location_id"] = "Enter a destination location."
	}
	if qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity"))); err == nil {
		form.Quantity = qty
	} else {
		errors["quantity"] = "Quantity must be a whole number."
	}
	return form, errors
}

var formFieldOrder = []string{"product_id", "location_id", "source_location_id", "dest_location_id", "quantity"}

func firstError(errs map[string]string) string {
	for _, field := range formFieldOrder {
		if msg, ok := errs[field]; ok {
			return msg
		}
	}
	return "The submitted data is invalid."
}
