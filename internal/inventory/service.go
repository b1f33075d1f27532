package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByProduct(ctx context.Context, productID int64) ([]ProductStock, error)
	ListByLocation(ctx context.Context, locationID int64) ([]LocationStock, error)
	History(ctx context.Context, filter HistoryFilter) ([]HistoryView, error)
	Reconcile(ctx context.Context) ([]ReconcileRow, error)
}

// Claimer deduplicates transfer submissions carrying a request key.
type Claimer interface {
	Claim(ctx context.Context, scope, key string) error
	Release(ctx context.Context, scope, key string) error
}

const transferScope = "inventory.transfer"

// Service coordinates ledger mutations.
type Service struct {
	repo     RepositoryPort
	claims   Claimer
	observer Observer
	logger   *slog.Logger
}

// NewService builds Service. claims and observer may be nil.
func NewService(repo RepositoryPort, claims Claimer, observer Observer, logger *slog.Logger) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, claims: claims, observer: observer, logger: logger}
}

func (s *Service) observe(op string, productID int64, qty int, err error) {
	s.observer.ObserveLedger(LedgerEvent{Operation: op, ProductID: productID, Quantity: qty, Result: ResultOf(err)})
	if err != nil && !shared.IsBusiness(err) {
		s.logger.Error("ledger operation failed", slog.String("operation", op), slog.Int64("product_id", productID), slog.Any("error", err))
	}
}

// Assign places quantity units of a product at a location that does not
// already hold it.
func (s *Service) Assign(ctx context.Context, input AssignInput) (Assignment, error) {
	created, err := s.assign(ctx, input)
	s.observe(OpAssign, input.ProductID, input.Quantity, err)
	return created, err
}

func (s *Service) assign(ctx context.Context, input AssignInput) (Assignment, error) {
	if input.Quantity <= 0 {
		return Assignment{}, shared.Validation("quantity", "quantity must be positive")
	}
	var created Assignment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		total, err := tx.ProductTotal(ctx, input.ProductID)
		if err != nil {
			return err
		}
		exists, err := tx.LocationExists(ctx, input.LocationID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NotFound("location", "")
		}
		if input.Quantity > total {
			return &shared.CapacityError{Total: total, Requested: input.Quantity}
		}
		_, err = tx.GetAssignmentForUpdate(ctx, input.ProductID, input.LocationID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: product already assigned to location", shared.ErrConflict)
		case !errors.Is(err, ErrAssignmentNotFound):
			return err
		}
		created, err = tx.InsertAssignment(ctx, Assignment{ProductID: input.ProductID, LocationID: input.LocationID, Quantity: input.Quantity})
		if err != nil {
			return err
		}
		_, err = tx.InsertHistory(ctx, HistoryEntry{
			ProductID:      input.ProductID,
			Action:         ActionAssigned,
			Quantity:       input.Quantity,
			DestLocationID: ptr(input.LocationID),
			ActorID:        input.ActorID,
		})
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	return created, nil
}

// AdjustQuantity overwrites the quantity of an existing assignment.
func (s *Service) AdjustQuantity(ctx context.Context, input AdjustInput) (Assignment, error) {
	var updated Assignment
	if input.Quantity <= 0 {
		err := shared.Validation("quantity", "quantity must be positive")
		s.observe(OpAdjust, 0, input.Quantity, err)
		return Assignment{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAssignmentByIDForUpdate(ctx, input.AssignmentID)
		if err != nil {
			return notFoundAssignment(err)
		}
		total, err := tx.ProductTotal(ctx, current.ProductID)
		if err != nil {
			return err
		}
		if input.Quantity > total {
			return &shared.CapacityError{Total: total, Requested: input.Quantity}
		}
		updated, err = tx.UpdateAssignmentQuantity(ctx, current.ID, input.Quantity)
		if err != nil {
			return err
		}
		_, err = tx.InsertHistory(ctx, HistoryEntry{
			ProductID:      current.ProductID,
			Action:         ActionQuantityChanged,
			Quantity:       input.Quantity,
			DestLocationID: ptr(current.LocationID),
			ActorID:        input.ActorID,
		})
		return err
	})
	s.observe(OpAdjust, updated.ProductID, input.Quantity, err)
	if err != nil {
		return Assignment{}, err
	}
	return updated, nil
}

// Remove deletes an assignment regardless of its quantity.
func (s *Service) Remove(ctx context.Context, input RemoveInput) (Assignment, error) {
	var removed Assignment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAssignmentByIDForUpdate(ctx, input.AssignmentID)
		if err != nil {
			return notFoundAssignment(err)
		}
		if err := tx.DeleteAssignment(ctx, current.ID); err != nil {
			return notFoundAssignment(err)
		}
		removed = current
		_, err = tx.InsertHistory(ctx, HistoryEntry{
			ProductID:        current.ProductID,
			Action:           ActionRemoved,
			Quantity:         current.Quantity,
			SourceLocationID: ptr(current.LocationID),
			ActorID:          input.ActorID,
		})
		return err
	})
	s.observe(OpRemove, removed.ProductID, removed.Quantity, err)
	if err != nil {
		return Assignment{}, err
	}
	return removed, nil
}

// Transfer moves units of a product from one location to another. The
// source row is deleted when drained and the destination row is created on
// first arrival. The per-product assigned sum is unchanged.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	result, err := s.transfer(ctx, input)
	s.observe(OpTransfer, input.ProductID, input.Quantity, err)
	return result, err
}

func (s *Service) transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if input.Quantity <= 0 {
		return TransferResult{}, shared.Validation("quantity", "quantity must be positive")
	}
	if input.SourceLocationID == input.DestLocationID {
		return TransferResult{}, shared.Validation("dest_location_id", "source and destination must differ")
	}
	if s.claims != nil && input.RequestKey != "" {
		if err := s.claims.Claim(ctx, transferScope, input.RequestKey); err != nil {
			if errors.Is(err, shared.ErrDuplicateRequest) {
				return TransferResult{}, fmt.Errorf("%w: %v", shared.ErrConflict, err)
			}
			return TransferResult{}, fmt.Errorf("inventory: claim request key: %w", err)
		}
	}

	var result TransferResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		src, err := tx.GetAssignmentForUpdate(ctx, input.ProductID, input.SourceLocationID)
		if err != nil {
			if errors.Is(err, ErrAssignmentNotFound) {
				return shared.NotFound("assignment", "no stock at source")
			}
			return err
		}
		if src.Quantity < input.Quantity {
			return &shared.InsufficientStockError{Available: src.Quantity, Requested: input.Quantity}
		}
		exists, err := tx.LocationExists(ctx, input.DestLocationID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NotFound("location", "destination location not found")
		}

		if remaining := src.Quantity - input.Quantity; remaining == 0 {
			if err := tx.DeleteAssignment(ctx, src.ID); err != nil {
				return err
			}
		} else {
			updated, err := tx.UpdateAssignmentQuantity(ctx, src.ID, remaining)
			if err != nil {
				return err
			}
			result.Source = &updated
		}

		dst, err := tx.GetAssignmentForUpdate(ctx, input.ProductID, input.DestLocationID)
		switch {
		case err == nil:
			result.Destination, err = tx.UpdateAssignmentQuantity(ctx, dst.ID, dst.Quantity+input.Quantity)
		case errors.Is(err, ErrAssignmentNotFound):
			result.Destination, err = tx.InsertAssignment(ctx, Assignment{
				ProductID:  input.ProductID,
				LocationID: input.DestLocationID,
				Quantity:   input.Quantity,
			})
		}
		if err != nil {
			return err
		}

		result.History, err = tx.InsertHistory(ctx, HistoryEntry{
			ProductID:        input.ProductID,
			Action:           ActionMovement,
			Quantity:         input.Quantity,
			SourceLocationID: ptr(input.SourceLocationID),
			DestLocationID:   ptr(input.DestLocationID),
			ActorID:          input.ActorID,
		})
		return err
	})
	if err != nil {
		if s.claims != nil && input.RequestKey != "" {
			if relErr := s.claims.Release(context.WithoutCancel(ctx), transferScope, input.RequestKey); relErr != nil {
				s.logger.Warn("release transfer request key", slog.String("key", input.RequestKey), slog.Any("error", relErr))
			}
		}
		return TransferResult{}, err
	}
	return result, nil
}

// ListByProduct returns every location holding the product.
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]ProductStock, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// ListByLocation returns every product stored at the location.
func (s *Service) ListByLocation(ctx context.Context, locationID int64) ([]LocationStock, error) {
	return s.repo.ListByLocation(ctx, locationID)
}

// StockAt projects ListByLocation onto the registry's stock lines.
func (s *Service) StockAt(ctx context.Context, locationID int64) ([]locations.StockLine, error) {
	stock, err := s.repo.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	lines := make([]locations.StockLine, 0, len(stock))
	for _, st := range stock {
		lines = append(lines, locations.StockLine{
			AssignmentID:  st.ID,
			ProductID:     st.ProductID,
			ProductName:   st.ProductName,
			Barcode:       st.Barcode,
			QRCode:        st.QRCode,
			Quantity:      st.Quantity,
			TotalQuantity: st.TotalQuantity,
			UpdatedAt:     st.UpdatedAt,
		})
	}
	return lines, nil
}

// History lists ledger entries for a product, newest first.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]HistoryView, error) {
	if filter.ProductID <= 0 {
		return nil, shared.Validation("product_id", "product is required")
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.repo.History(ctx, filter)
}

// Reconcile reports products whose assignment sum exceeds their total. It
// never modifies the ledger.
func (s *Service) Reconcile(ctx context.Context) ([]ReconcileRow, error) {
	rows, err := s.repo.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: reconcile: %w", err)
	}
	return rows, nil
}

func notFoundAssignment(err error) error {
	if errors.Is(err, ErrAssignmentNotFound) {
		return shared.NotFound("assignment", "")
	}
	return err
}
