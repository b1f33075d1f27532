package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockgrid/stockgrid/internal/platform/db"
	"github.com/stockgrid/stockgrid/internal/shared"
)

const codeForeignKeyViolation = "23503"

// Repository persists the assignment ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	ProductTotal(ctx context.Context, productID int64) (int, error)
	LocationExists(ctx context.Context, locationID int64) (bool, error)
	GetAssignmentForUpdate(ctx context.Context, productID, locationID int64) (Assignment, error)
	GetAssignmentByIDForUpdate(ctx context.Context, id int64) (Assignment, error)
	InsertAssignment(ctx context.Context, a Assignment) (Assignment, error)
	UpdateAssignmentQuantity(ctx context.Context, id int64, quantity int) (Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
	InsertHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
}

type txRepo struct {
	tx pgx.Tx
}

// ErrAssignmentNotFound indicates a missing ledger row.
var ErrAssignmentNotFound = errors.New("assignment not found")

// WithTx executes the callback inside a serializable transaction. Retryable
// server errors and duplicate keys are reported as shared.ErrConflict.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, pgx.Serializable, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	return mapTxError(err)
}

func mapTxError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsRetryable(err), db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	case db.Code(err) == codeForeignKeyViolation:
		return shared.NotFound(constraintEntity(db.Constraint(err)), "")
	}
	return err
}

func constraintEntity(constraint string) string {
	switch constraint {
	case "assignments_product_id_fkey":
		return "product"
	case "assignments_location_id_fkey":
		return "location"
	}
	return "record"
}

func (r *txRepo) ProductTotal(ctx context.Context, productID int64) (int, error) {
	var total int
	err := r.tx.QueryRow(ctx, `SELECT total_quantity FROM products WHERE id=$1`, productID).Scan(&total)
	if db.IsNoRows(err) {
		return 0, shared.NotFound("product", "")
	}
	return total, err
}

func (r *txRepo) LocationExists(ctx context.Context, locationID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id=$1)`, locationID).Scan(&exists)
	return exists, err
}

const assignmentColumns = `id, product_id, location_id, quantity, created_at, updated_at`

func (r *txRepo) GetAssignmentForUpdate(ctx context.Context, productID, locationID int64) (Assignment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments
WHERE product_id=$1 AND location_id=$2
FOR UPDATE`, productID, locationID)
	return scanAssignment(row)
}

func (r *txRepo) GetAssignmentByIDForUpdate(ctx context.Context, id int64) (Assignment, error) {
	return scanAssignment(r.tx.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepo) InsertAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO assignments (product_id, location_id, quantity, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW())
RETURNING `+assignmentColumns, a.ProductID, a.LocationID, a.Quantity)
	created, err := scanAssignment(row)
	if err != nil && db.IsUniqueViolation(err) {
		return Assignment{}, fmt.Errorf("%w: product already assigned to location", shared.ErrConflict)
	}
	return created, err
}

func (r *txRepo) UpdateAssignmentQuantity(ctx context.Context, id int64, quantity int) (Assignment, error) {
	row := r.tx.QueryRow(ctx, `UPDATE assignments SET quantity=$2, updated_at=NOW()
WHERE id=$1
RETURNING `+assignmentColumns, id, quantity)
	return scanAssignment(row)
}

func (r *txRepo) DeleteAssignment(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *txRepo) InsertHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO history (product_id, action, quantity, source_location_id, dest_location_id, actor_id, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
RETURNING id, occurred_at`,
		entry.ProductID, string(entry.Action), entry.Quantity, entry.SourceLocationID, entry.DestLocationID, entry.ActorID,
	).Scan(&entry.ID, &entry.OccurredAt)
	return entry, err
}

// ListByProduct returns the locations holding a product.
func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]ProductStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.product_id, a.location_id, a.quantity, a.created_at, a.updated_at,
       l.code, l.aisle, l.side, l.letter, l.level
FROM assignments a
JOIN locations l ON l.id = a.location_id
WHERE a.product_id=$1
ORDER BY l.aisle, l.side, l.letter, l.level`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductStock
	for rows.Next() {
		var s ProductStock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.LocationID, &s.Quantity, &s.CreatedAt, &s.UpdatedAt,
			&s.LocationCode, &s.Aisle, &s.Side, &s.Letter, &s.Level); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByLocation returns the products stored at a location.
func (r *Repository) ListByLocation(ctx context.Context, locationID int64) ([]LocationStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.product_id, a.location_id, a.quantity, a.created_at, a.updated_at,
       p.name, p.barcode, p.qr_code, p.total_quantity
FROM assignments a
JOIN products p ON p.id = a.product_id
WHERE a.location_id=$1
ORDER BY lower(p.name), p.id`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LocationStock
	for rows.Next() {
		var s LocationStock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.LocationID, &s.Quantity, &s.CreatedAt, &s.UpdatedAt,
			&s.ProductName, &s.Barcode, &s.QRCode, &s.TotalQuantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// History lists entries for a product, newest first.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]HistoryView, error) {
	rows, err := r.pool.Query(ctx, `SELECT h.id, h.product_id, h.action, h.quantity, h.source_location_id, h.dest_location_id,
       h.actor_id, h.occurred_at, COALESCE(src.code, ''), COALESCE(dst.code, '')
FROM history h
LEFT JOIN locations src ON src.id = h.source_location_id
LEFT JOIN locations dst ON dst.id = h.dest_location_id
WHERE h.product_id=$1
ORDER BY h.occurred_at DESC, h.id DESC
LIMIT $2`, filter.ProductID, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryView
	for rows.Next() {
		var (
			v      HistoryView
			action string
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &action, &v.Quantity, &v.SourceLocationID, &v.DestLocationID,
			&v.ActorID, &v.OccurredAt, &v.SourceCode, &v.DestCode); err != nil {
			return nil, err
		}
		v.Action = Action(action)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Reconcile lists products whose assigned units exceed their stored total.
func (r *Repository) Reconcile(ctx context.Context) ([]ReconcileRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.total_quantity, SUM(a.quantity)::bigint
FROM products p
JOIN assignments a ON a.product_id = p.id
GROUP BY p.id, p.name, p.total_quantity
HAVING SUM(a.quantity) > p.total_quantity
ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReconcileRow
	for rows.Next() {
		var row ReconcileRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.TotalQuantity, &row.Assigned); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.ProductID, &a.LocationID, &a.Quantity, &a.CreatedAt, &a.UpdatedAt)
	if db.IsNoRows(err) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}
