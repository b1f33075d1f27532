package inventory

import (
	"errors"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// Ledger operation names reported to observers.
const (
	OpAssign   = "assign"
	OpAdjust   = "adjust"
	OpRemove   = "remove"
	OpTransfer = "transfer"
)

// LedgerEvent is emitted after every ledger operation, successful or not.
type LedgerEvent struct {
	Operation string
	ProductID int64
	Quantity  int
	Result    string
}

// Observer receives ledger events, e.g. to export metrics.
type Observer interface {
	ObserveLedger(evt LedgerEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveLedger(LedgerEvent) {}

// ResultOf classifies err into a short label.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrValidation):
		return "validation"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	}
	return "error"
}
