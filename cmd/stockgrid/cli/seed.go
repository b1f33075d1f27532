package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/stockgrid/stockgrid/internal/auth"
	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/products"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// LocationGenerator creates the registry.
type LocationGenerator interface {
	Generate(ctx context.Context, actorID int64) (locations.GenerateResult, error)
}

// ProductCreator registers catalog entries.
type ProductCreator interface {
	Create(ctx context.Context, input products.CreateInput) (products.Product, error)
}

// SeedOptions controls what Seed writes.
type SeedOptions struct {
	DemoProduct bool
}

// DemoProduct is the sample catalog entry written by seed --demo.
var DemoProduct = products.CreateInput{
	Name:          "Tornillo hexagonal M8",
	Barcode:       "7501234567890",
	Description:   "Caja de 100 unidades",
	TotalQuantity: 120,
}

// Seed makes sure the registry exists and optionally adds the demo product.
// Running it twice is harmless.
func Seed(ctx context.Context, registry LocationGenerator, catalog ProductCreator, opts SeedOptions, out io.Writer) error {
	result, err := registry.Generate(ctx, auth.AdminUserID)
	if err != nil {
		return fmt.Errorf("seed locations: %w", err)
	}
	fmt.Fprintf(out, "locations: %d created, %d total\n", result.Inserted, result.Total)

	if !opts.DemoProduct || catalog == nil {
		return nil
	}
	product, err := catalog.Create(ctx, DemoProduct)
	switch {
	case err == nil:
		fmt.Fprintf(out, "product: %s (#%d)\n", product.Name, product.ID)
	case errors.Is(err, shared.ErrConflict):
		fmt.Fprintln(out, "product: demo product already present")
	default:
		return fmt.Errorf("seed demo product: %w", err)
	}
	return nil
}
