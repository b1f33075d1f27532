package locations

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

// Repository persists the location registry in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const locationColumns = `id, code, aisle, side, letter, level, map_x, map_y, created_at`

// EnsureAll inserts the given slots, skipping codes that already exist, and
// returns how many rows were new.
func (r *Repository) EnsureAll(ctx context.Context, slots []Location) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("locations repository not initialised")
	}
	inserted := 0
	err := db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, slot := range slots {
			batch.Queue(`INSERT INTO locations (code, aisle, side, letter, level, map_x, map_y)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (code) DO NOTHING`, slot.Code, slot.Aisle, string(slot.Side), slot.Letter, slot.Level, slot.MapX, slot.MapY)
		}
		results := tx.SendBatch(ctx, batch)
		for range slots {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("insert location: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Count returns the number of registered slots.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locations`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Get loads a location by id.
func (r *Repository) Get(ctx context.Context, id int64) (Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id=$1`, id)
	return scanLocation(row)
}

// GetByCode loads a location by its canonical code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE code=$1`, code)
	return scanLocation(row)
}

// List returns locations in registry order.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Location, error) {
	where, args := filterClause(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations`+where+`
ORDER BY aisle, side, letter, level`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, loc)
	}
	return items, rows.Err()
}

// Cells returns locations with their occupancy.
func (r *Repository) Cells(ctx context.Context, filter ListFilter) ([]Cell, error) {
	where, args := filterClause(filter)
	rows, err := r.pool.Query(ctx, `SELECT l.id, l.code, l.aisle, l.side, l.letter, l.level, l.map_x, l.map_y, l.created_at,
       COALESCE(a.products, 0)
FROM locations l
LEFT JOIN (
    SELECT location_id, COUNT(*) AS products FROM assignments GROUP BY location_id
) a ON a.location_id = l.id`+where+`
ORDER BY l.aisle, l.side, l.letter, l.level`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cells := []Cell{}
	for rows.Next() {
		var (
			cell Cell
			side string
		)
		if err := rows.Scan(&cell.ID, &cell.Code, &cell.Aisle, &side, &cell.Letter, &cell.Level, &cell.MapX, &cell.MapY, &cell.CreatedAt, &cell.ProductCount); err != nil {
			return nil, err
		}
		cell.Side = Side(side)
		cell.Occupied = cell.ProductCount > 0
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// Assignable lists products with stock that are not yet at the location.
func (r *Repository) Assignable(ctx context.Context, locationID int64) ([]ProductOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.barcode, p.total_quantity
FROM products p
WHERE p.total_quantity > 0
  AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.product_id = p.id AND a.location_id = $1)
ORDER BY lower(p.name), p.id`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	options := []ProductOption{}
	for rows.Next() {
		var opt ProductOption
		if err := rows.Scan(&opt.ID, &opt.Name, &opt.Barcode, &opt.TotalQuantity); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func filterClause(filter ListFilter) (string, []any) {
	conds := []string{}
	args := []any{}
	if filter.Aisle > 0 {
		args = append(args, filter.Aisle)
		conds = append(conds, fmt.Sprintf("aisle = $%d", len(args)))
	}
	if filter.Side.Valid() {
		args = append(args, string(filter.Side))
		conds = append(conds, fmt.Sprintf("side = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, db.ContainsPattern(term))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(code ILIKE $%[1]d OR ('P' || code) ILIKE $%[1]d OR letter ILIKE $%[1]d OR aisle::text LIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanLocation(row pgx.Row) (Location, error) {
	var (
		loc  Location
		side string
	)
	if err := row.Scan(&loc.ID, &loc.Code, &loc.Aisle, &side, &loc.Letter, &loc.Level, &loc.MapX, &loc.MapY, &loc.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return Location{}, shared.NotFound("location", "location not found")
		}
		return Location{}, err
	}
	loc.Side = Side(side)
	return loc, nil
}
