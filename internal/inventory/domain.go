package inventory

import "time"

// Action identifies the kind of ledger mutation recorded in history.
type Action string

const (
	// ActionAssigned records a product placed at a location for the first time.
	ActionAssigned Action = "ASSIGNED"
	// ActionQuantityChanged records a direct quantity edit.
	ActionQuantityChanged Action = "QUANTITY_CHANGED"
	// ActionMovement records a transfer between two locations.
	ActionMovement Action = "MOVEMENT"
	// ActionRemoved records an assignment deleted outright.
	ActionRemoved Action = "REMOVED"
)

// Assignment is the ledger row holding Quantity units of a product at a
// location. Quantity is always positive; a drained row is deleted.
type Assignment struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HistoryEntry is an append-only audit record of a ledger mutation.
type HistoryEntry struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	Action           Action    `json:"action"`
	Quantity         int       `json:"quantity"`
	SourceLocationID *int64    `json:"source_location_id,omitempty"`
	DestLocationID   *int64    `json:"dest_location_id,omitempty"`
	ActorID          int64     `json:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// AssignInput places a product at a location.
type AssignInput struct {
	ProductID  int64
	LocationID int64
	Quantity   int
	ActorID    int64
}

// AdjustInput sets a new quantity on an existing assignment.
type AdjustInput struct {
	AssignmentID int64
	Quantity     int
	ActorID      int64
}

// RemoveInput deletes an assignment.
type RemoveInput struct {
	AssignmentID int64
	ActorID      int64
}

// TransferInput moves Quantity units of a product between two locations.
// RequestKey, when set, rejects a second submission of the same form.
type TransferInput struct {
	ProductID        int64  `json:"product_id"`
	SourceLocationID int64  `json:"source_location_id"`
	DestLocationID   int64  `json:"dest_location_id"`
	Quantity         int    `json:"quantity"`
	ActorID          int64  `json:"-"`
	RequestKey       string `json:"request_key,omitempty"`
}

// TransferResult describes the ledger after a successful transfer. Source is
// nil when the source row was drained and deleted.
type TransferResult struct {
	Source      *Assignment  `json:"source,omitempty"`
	Destination Assignment   `json:"destination"`
	History     HistoryEntry `json:"history"`
}

// ProductStock is an assignment seen from the product side.
type ProductStock struct {
	Assignment
	LocationCode string `json:"location_code"`
	Aisle        int    `json:"aisle"`
	Side         string `json:"side"`
	Letter       string `json:"letter"`
	Level        int    `json:"level"`
}

// LocationStock is an assignment seen from the location side.
type LocationStock struct {
	Assignment
	ProductName   string  `json:"product_name"`
	Barcode       *string `json:"barcode,omitempty"`
	QRCode        *string `json:"qr_code,omitempty"`
	TotalQuantity int     `json:"total_quantity"`
}

// HistoryFilter selects history entries for display.
type HistoryFilter struct {
	ProductID int64
	Limit     int
}

// HistoryView is a history entry with location codes resolved.
type HistoryView struct {
	HistoryEntry
	SourceCode string `json:"source_code,omitempty"`
	DestCode   string `json:"dest_code,omitempty"`
}

// ReconcileRow compares a product's stored total with its assigned units.
type ReconcileRow struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
	Assigned      int    `json:"assigned"`
}

// Overcommitted reports whether more units are assigned than the product total.
func (r ReconcileRow) Overcommitted() bool {
	return r.Assigned > r.TotalQuantity
}

func ptr(v int64) *int64 {
	return &v
}
