package svg

// MapOpts customises the warehouse map renderer.
type MapOpts struct {
	Title         string
	Description   string
	CellSize      float64
	Gap           float64
	Padding       float64
	FreeColor     string
	OccupiedColor string
	MatchColor    string
	TextColor     string
	// Link builds the href for a cell. Cells are not linked when nil.
	Link func(id int64) string
	// Highlight marks cells whose code is in the set.
	Highlight map[string]bool
}

// Slot is the input for one rendered map cell.
type Slot struct {
	ID       int64
	Code     string
	Aisle    int
	Right    bool
	Rack     int
	Level    int
	Occupied bool
	Products int
}

// Defaults for the map renderer.
const (
	DefaultCellSize = 14.0
	DefaultGap      = 2.0
	DefaultPadding  = 24.0
)
