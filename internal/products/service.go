package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// RepositoryPort is the storage contract of the catalog.
type RepositoryPort interface {
	Insert(ctx context.Context, p Product) (Product, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Get(ctx context.Context, id int64) (Product, error)
	FindByCode(ctx context.Context, code string) (Product, error)
	List(ctx context.Context, search string, limit, offset int) ([]Product, error)
	Count(ctx context.Context, search string) (int, error)
	Summary(ctx context.Context) (Summary, error)
}

// StockSource lists where a product is stored. The assignment ledger owns
// this projection.
type StockSource interface {
	ListByProduct(ctx context.Context, productID int64) ([]inventory.ProductStock, error)
}

// Barcode bounds for generated codes: 13 digits, no leading zero.
const (
	minGeneratedBarcode = 1_000_000_000_000
	maxGeneratedBarcode = 9_999_999_999_999
)

// ServiceConfig tunes catalog behaviour.
type ServiceConfig struct {
	MaxBarcodeAttempts int
	DefaultPageSize    int
	// NewBarcode overrides the random barcode source.
	NewBarcode func() string
}

// Service implements the product catalog.
type Service struct {
	repo     RepositoryPort
	stock    StockSource
	validate *validator.Validate
	cfg      ServiceConfig
	logger   *slog.Logger
}

// NewService constructs the catalog service.
func NewService(repo RepositoryPort, stock StockSource, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.MaxBarcodeAttempts <= 0 {
		cfg.MaxBarcodeAttempts = 10
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.NewBarcode == nil {
		cfg.NewBarcode = RandomBarcode
	}
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Service{repo: repo, stock: stock, validate: validate, cfg: cfg, logger: logger}
}

// RandomBarcode returns a 13-digit numeric code.
func RandomBarcode() string {
	n := minGeneratedBarcode + rand.Int64N(maxGeneratedBarcode-minGeneratedBarcode+1)
	return strconv.FormatInt(n, 10)
}

// Create registers a product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Barcode = strings.TrimSpace(input.Barcode)
	input.QRCode = strings.TrimSpace(input.QRCode)
	input.Description = strings.TrimSpace(input.Description)

	if err := s.validate.Struct(input); err != nil {
		return Product{}, validationError(err)
	}

	product := Product{
		Name:          input.Name,
		Barcode:       optional(input.Barcode),
		QRCode:        optional(input.QRCode),
		Description:   optional(input.Description),
		TotalQuantity: input.TotalQuantity,
	}

	if product.Barcode != nil {
		if err := s.ensureFree(ctx, "barcode", *product.Barcode); err != nil {
			return Product{}, err
		}
	} else {
		code, err := s.generateBarcode(ctx)
		if err != nil {
			return Product{}, err
		}
		product.Barcode = &code
	}
	if product.QRCode != nil {
		if err := s.ensureFree(ctx, "qr_code", *product.QRCode); err != nil {
			return Product{}, err
		}
	}

	created, err := s.repo.Insert(ctx, product)
	if err != nil {
		return Product{}, fmt.Errorf("products: insert: %w", err)
	}
	s.logger.Info("product created", slog.Int64("product_id", created.ID), slog.String("name", created.Name))
	return created, nil
}

func (s *Service) ensureFree(ctx context.Context, field, code string) error {
	exists, err := s.repo.CodeExists(ctx, code)
	if err != nil {
		return fmt.Errorf("products: check %s: %w", field, err)
	}
	if exists {
		return fmt.Errorf("%w: %s %q already in use", shared.ErrConflict, field, code)
	}
	return nil
}

func (s *Service) generateBarcode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= s.cfg.MaxBarcodeAttempts; attempt++ {
		candidate := s.cfg.NewBarcode()
		exists, err := s.repo.CodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("products: check generated barcode: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		s.logger.Debug("generated barcode collided", slog.Int("attempt", attempt))
	}
	return "", fmt.Errorf("products: barcode after %d attempts: %w", s.cfg.MaxBarcodeAttempts, shared.ErrGenerationExhausted)
}

// Get loads a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NotFound("product", "product not found")
	}
	return s.repo.Get(ctx, id)
}

// FindByCode looks a product up by barcode or QR code and returns it with
// the locations holding it.
func (s *Service) FindByCode(ctx context.Context, code string) (Lookup, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Lookup{}, shared.Validation("code", "code is required")
	}
	product, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return Lookup{}, err
	}
	placements, err := s.placements(ctx, product.ID)
	if err != nil {
		return Lookup{}, fmt.Errorf("products: placements: %w", err)
	}
	return Lookup{Product: product, Placements: placements}, nil
}

// Placements lists the locations holding the given product.
func (s *Service) Placements(ctx context.Context, id int64) ([]Placement, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.placements(ctx, id)
}

func (s *Service) placements(ctx context.Context, productID int64) ([]Placement, error) {
	stock, err := s.stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]Placement, 0, len(stock))
	for _, st := range stock {
		out = append(out, Placement{
			AssignmentID: st.ID,
			LocationID:   st.LocationID,
			Code:         st.LocationCode,
			Aisle:        st.Aisle,
			Side:         st.Side,
			Letter:       st.Letter,
			Level:        st.Level,
			Quantity:     st.Quantity,
			UpdatedAt:    st.UpdatedAt,
		})
	}
	return out, nil
}

// List returns a page of products whose name contains the search term. The
// count and the page are fetched concurrently.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	size := filter.PageSize
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if size > 100 {
		size = 100
	}
	pagination := shared.NewPagination(filter.Page, size, 0)

	var (
		items []Product
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, filter.Search, size, pagination.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter.Search)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, fmt.Errorf("products: list: %w", err)
	}
	pagination = shared.NewPagination(pagination.Page, size, total)
	return Page{
		Items:      items,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   size,
		TotalPages: pagination.TotalPages,
	}, nil
}

// Summary returns catalog counters.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return shared.Validation("", err.Error())
	}
	fe := fieldErrs[0]
	field := fe.Field()
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return shared.Validation(field, label+" is required")
	case "gte":
		return shared.Validation(field, label+" must not be negative")
	case "max":
		return shared.Validation(field, fmt.Sprintf("%s must be at most %s characters", label, fe.Param()))
	}
	return shared.Validation(field, fe.Error())
}
