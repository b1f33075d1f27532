package app

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/products"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
)

// CatalogSummary reports catalog-wide counters.
type CatalogSummary interface {
	Summary(ctx context.Context) (products.Summary, error)
}

// RegistryMap reports registry occupancy.
type RegistryMap interface {
	Map(ctx context.Context, filter locations.ListFilter) (locations.MapView, error)
}

// LedgerReconciler lists products with more units assigned than they hold.
type LedgerReconciler interface {
	Reconcile(ctx context.Context) ([]inventory.ReconcileRow, error)
}

// Dashboard renders the landing page for signed-in operators.
type Dashboard struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Catalog   CatalogSummary
	Registry  RegistryMap
	Ledger    LedgerReconciler
}

type dashboardData struct {
	Summary       products.Summary
	Locations     int
	Occupied      int
	Free          int
	Overcommitted []inventory.ReconcileRow
}

// ServeHTTP renders the dashboard.
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var data dashboardData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		summary, err := d.Catalog.Summary(ctx)
		data.Summary = summary
		return err
	})
	g.Go(func() error {
		mv, err := d.Registry.Map(ctx, locations.ListFilter{})
		data.Locations, data.Occupied, data.Free = mv.Total, mv.Occupied, mv.Free
		return err
	})
	if d.Ledger != nil {
		g.Go(func() error {
			rows, err := d.Ledger.Reconcile(ctx)
			data.Overcommitted = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		d.Logger.Error("load dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := d.CSRF.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := d.Templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		d.Logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
