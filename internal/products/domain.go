package products

import "time"

// Product is a catalog entry. TotalQuantity is an independently maintained
// counter and is never derived from the assignment ledger.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Barcode       *string   `json:"barcode,omitempty"`
	QRCode        *string   `json:"qr_code,omitempty"`
	Description   *string   `json:"description,omitempty"`
	TotalQuantity int       `json:"total_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateInput carries the fields accepted when registering a product. Blank
// optional fields are stored as NULL. A missing barcode is generated.
type CreateInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Barcode       string `json:"barcode" validate:"omitempty,max=64"`
	QRCode        string `json:"qr_code" validate:"omitempty,max=255"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
	TotalQuantity int    `json:"total_quantity" validate:"gte=0"`
}

// ListFilter drives the paginated product listing.
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
}

// Page is one page of a product listing.
type Page struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Placement is a location holding some of a product.
type Placement struct {
	AssignmentID int64     `json:"assignment_id"`
	LocationID   int64     `json:"location_id"`
	Code         string    `json:"code"`
	Aisle        int       `json:"aisle"`
	Side         string    `json:"side"`
	Letter       string    `json:"letter"`
	Level        int       `json:"level"`
	Quantity     int       `json:"quantity"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Lookup is the result of a code search.
type Lookup struct {
	Product    Product     `json:"product"`
	Placements []Placement `json:"placements"`
}

// AssignedUnits sums the quantities of all placements.
func (l Lookup) AssignedUnits() int {
	total := 0
	for _, p := range l.Placements {
		total += p.Quantity
	}
	return total
}

// Summary holds catalog-wide counters for the dashboard.
type Summary struct {
	Products int
	Units    int
}
