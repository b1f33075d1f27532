package locations

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Side identifies which half of an aisle a rack stands on.
type Side string

const (
	// SideLeft holds racks A to E.
	SideLeft Side = "left"
	// SideRight holds racks F to J.
	SideRight Side = "right"
)

// Warehouse geometry. The registry is fixed at Aisles × 2 × RacksPerSide × Levels slots.
const (
	Aisles       = 15
	RacksPerSide = 5
	Levels       = 5
	TotalSlots   = Aisles * 2 * RacksPerSide * Levels

	// NominalCapacity is the unit count a slot is considered full at for
	// utilisation reporting. It is not enforced by the ledger.
	NominalCapacity = 50
)

var (
	leftLetters  = []string{"A", "B", "C", "D", "E"}
	rightLetters = []string{"F", "G", "H", "I", "J"}
)

// Letters returns the rack letters of a side in order.
func (s Side) Letters() []string {
	if s == SideRight {
		return append([]string(nil), rightLetters...)
	}
	return append([]string(nil), leftLetters...)
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// SideOf returns the side a rack letter belongs to.
func SideOf(letter string) (Side, bool) {
	letter = strings.ToUpper(letter)
	for _, l := range leftLetters {
		if l == letter {
			return SideLeft, true
		}
	}
	for _, l := range rightLetters {
		if l == letter {
			return SideRight, true
		}
	}
	return "", false
}

// Location is a single addressable storage slot.
type Location struct {
	ID        int64
	Code      string
	Aisle     int
	Side      Side
	Letter    string
	Level     int
	MapX      int
	MapY      int
	CreatedAt time.Time
}

// Label is the display form used on printed rack labels.
func (l Location) Label() string {
	return "P" + l.Code
}

// FormatCode builds the canonical slot code, e.g. 01-A-1.
func FormatCode(aisle int, letter string, level int) string {
	return fmt.Sprintf("%02d-%s-%d", aisle, strings.ToUpper(letter), level)
}

// ParseCode normalises a user supplied code. It accepts the canonical form,
// lower case letters, an unpadded aisle and the P-prefixed label form
// (P01-A-1).
func ParseCode(raw string) (aisle int, letter string, level int, err error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.TrimPrefix(code, "P")
	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		return 0, "", 0, fmt.Errorf("location code %q: expected aisle-letter-level", raw)
	}
	aisle, err = strconv.Atoi(parts[0])
	if err != nil || aisle < 1 || aisle > Aisles {
		return 0, "", 0, fmt.Errorf("location code %q: aisle out of range", raw)
	}
	letter = parts[1]
	if _, ok := SideOf(letter); !ok {
		return 0, "", 0, fmt.Errorf("location code %q: unknown rack %q", raw, letter)
	}
	level, err = strconv.Atoi(parts[2])
	if err != nil || level < 1 || level > Levels {
		return 0, "", 0, fmt.Errorf("location code %q: level out of range", raw)
	}
	return aisle, letter, level, nil
}

// NormaliseCode returns the canonical form of raw.
func NormaliseCode(raw string) (string, error) {
	aisle, letter, level, err := ParseCode(raw)
	if err != nil {
		return "", err
	}
	return FormatCode(aisle, letter, level), nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Aisle  int
	Side   Side
	Search string
}

// Cell is a location as shown on the warehouse map.
type Cell struct {
	Location
	Occupied     bool
	ProductCount int
}

// AisleView groups the map cells of one aisle.
type AisleView struct {
	Aisle int
	Left  []Cell
	Right []Cell
}

// MapView is the whole warehouse map.
type MapView struct {
	Aisles   []AisleView
	Search   string
	Total    int
	Occupied int
	Free     int
}

// StockLine is one product held at a location.
type StockLine struct {
	AssignmentID  int64
	ProductID     int64
	ProductName   string
	Barcode       *string
	QRCode        *string
	Quantity      int
	TotalQuantity int
	UpdatedAt     time.Time
}

// ProductOption is a product that can still be placed at a location.
type ProductOption struct {
	ID            int64
	Name          string
	Barcode       *string
	TotalQuantity int
}

// Stats summarises a location's contents.
type Stats struct {
	AssignedUnits int
	ProductCount  int
	Utilisation   int
}

// Detail is the location page model.
type Detail struct {
	Location   Location
	Lines      []StockLine
	Stats      Stats
	Assignable []ProductOption
}

// Utilisation returns the nominal fill percentage capped at 100.
func Utilisation(units int) int {
	if units <= 0 {
		return 0
	}
	pct := (units*100 + NominalCapacity/2) / NominalCapacity
	if pct > 100 {
		return 100
	}
	return pct
}
