package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "Templates should parse without error")
	for _, page := range []string{
		"pages/auth/login.html",
		"pages/dashboard.html",
		"pages/products/list.html",
		"pages/products/new.html",
		"pages/products/detail.html",
		"pages/products/search.html",
		"pages/locations/list.html",
		"pages/locations/map.html",
		"pages/locations/detail.html",
		"pages/errors/404.html",
	} {
		assert.True(t, engine.Has(page), page)
	}
}

func TestRenderUsesPageBlocks(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/layouts/base.html":   {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "content" .}}{{end}}`)},
		"templates/partials/flash.html": {Data: []byte(`{{define "flash"}}{{with .Flash}}{{.Message}}{{end}}{{end}}`)},
		"templates/pages/a.html":        {Data: []byte(`{{define "content"}}A {{formatQty .Data}}{{end}}`)},
		"templates/pages/b/b.html":      {Data: []byte(`{{define "content"}}B{{end}}`)},
	}
	engine, err := newEngine(fsys)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, engine.RenderStatus(rec, http.StatusTeapot, "pages/a.html", TemplateData{Title: "T", Data: 1234567}))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "<title>T</title>A 1,234,567", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, "pages/b/b.html", TemplateData{}))
	assert.Contains(t, rec.Body.String(), "B")

	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/missing.html", TemplateData{}))
}

func TestRenderProductListWithPagination(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	type item struct {
		ID            int64
		Name          string
		Barcode       *string
		QRCode        *string
		TotalQuantity int
		UpdatedAt     time.Time
	}
	barcode := "7501234567890"
	data := struct {
		Page struct {
			Items []item
			Total int
		}
		Search     string
		Pagination shared.Pagination
	}{Search: "bolt", Pagination: shared.NewPagination(2, 1, 3)}
	data.Page.Items = []item{{ID: 4, Name: "Bolt M8", Barcode: &barcode, TotalQuantity: 1200, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}}
	data.Page.Total = 3

	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, "pages/products/list.html", TemplateData{Title: "Products", CurrentPath: "/products", Data: data}))
	body := rec.Body.String()
	assert.Contains(t, body, "Bolt M8")
	assert.Contains(t, body, "1,200")
	assert.Contains(t, body, "Page 2 of 3")
	assert.Contains(t, body, "page=1&amp;search=bolt")
	assert.Contains(t, body, "page=3&amp;search=bolt")
}
