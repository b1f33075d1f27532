package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockgrid/stockgrid/internal/platform/db"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, barcode, qr_code, description, total_quantity, created_at, updated_at`

// Insert stores a new product. Duplicate codes surface as shared.ErrConflict.
func (r *Repository) Insert(ctx context.Context, p Product) (Product, error) {
	if r == nil || r.pool == nil {
		return Product{}, errors.New("products repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, barcode, qr_code, description, total_quantity, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
RETURNING `+productColumns, p.Name, p.Barcode, p.QRCode, p.Description, p.TotalQuantity)
	created, err := scanProduct(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, fmt.Errorf("%w: %s", shared.ErrConflict, duplicateField(db.Constraint(err)))
		}
		return Product{}, err
	}
	return created, nil
}

// CodeExists reports whether any product uses code as barcode or QR code.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
    SELECT 1 FROM products WHERE lower(barcode) = lower($1) OR lower(qr_code) = lower($1)
)`, code).Scan(&exists)
	return exists, err
}

// Get loads a product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

// FindByCode matches barcode or QR code case-insensitively. Unique indexes
// on both columns mean at most one product per column can match; a barcode
// hit wins over a QR hit.
func (r *Repository) FindByCode(ctx context.Context, code string) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products
WHERE lower(barcode) = lower($1) OR lower(qr_code) = lower($1)
ORDER BY (lower(barcode) = lower($1)) DESC NULLS LAST, id
LIMIT 1`, code))
}

// List returns one page of products ordered by name then id.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Product, error) {
	where, args := searchClause(search)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM products%s
ORDER BY lower(name) ASC, id ASC
LIMIT $%d OFFSET $%d`, productColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Count returns how many products match search.
func (r *Repository) Count(ctx context.Context, search string) (int, error) {
	where, args := searchClause(search)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Summary returns catalog counters.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_quantity), 0) FROM products`).Scan(&s.Products, &s.Units)
	return s, err
}

func searchClause(search string) (string, []any) {
	term := strings.TrimSpace(search)
	if term == "" {
		return "", nil
	}
	return " WHERE name ILIKE $1", []any{db.ContainsPattern(term)}
}

func duplicateField(constraint string) string {
	switch {
	case strings.Contains(constraint, "barcode"):
		return "barcode already in use"
	case strings.Contains(constraint, "qr_code"):
		return "qr code already in use"
	}
	return "duplicate product"
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.QRCode, &p.Description, &p.TotalQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return Product{}, shared.NotFound("product", "product not found")
		}
		return Product{}, err
	}
	return p, nil
}
