package locations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// RepositoryPort is the storage contract the registry service relies on.
type RepositoryPort interface {
	EnsureAll(ctx context.Context, slots []Location) (int, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (Location, error)
	GetByCode(ctx context.Context, code string) (Location, error)
	List(ctx context.Context, filter ListFilter) ([]Location, error)
	Cells(ctx context.Context, filter ListFilter) ([]Cell, error)
	Assignable(ctx context.Context, locationID int64) ([]ProductOption, error)
}

// StockSource lists the stock held at a location. The assignment ledger owns
// this projection.
type StockSource interface {
	StockAt(ctx context.Context, locationID int64) ([]StockLine, error)
}

// Locker serialises registry generation across processes.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Service exposes the location registry.
type Service struct {
	repo   RepositoryPort
	stock  StockSource
	audit  shared.AuditRecorder
	locker Locker
	logger *slog.Logger
}

// NewService constructs a registry service. audit and locker may be nil.
func NewService(repo RepositoryPort, stock StockSource, audit shared.AuditRecorder, locker Locker, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, audit: audit, locker: locker, logger: logger}
}

// GenerateResult reports what a generation run did.
type GenerateResult struct {
	Ensured  int
	Inserted int
	Total    int
}

// Generate makes sure every slot of the fixed geometry exists. Existing codes
// are left untouched, so the call can be repeated or resumed after an
// interrupted run.
func (s *Service) Generate(ctx context.Context, actorID int64) (GenerateResult, error) {
	if s.locker != nil {
		release, err := s.locker.Lock(ctx, shared.LocationGenerationLockKey, 5*time.Minute)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("locations: acquire generation lock: %w", err)
		}
		defer release()
	}

	slots := Grid()
	inserted, err := s.repo.EnsureAll(ctx, slots)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("locations: ensure slots: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("locations: count slots: %w", err)
	}
	result := GenerateResult{Ensured: len(slots), Inserted: inserted, Total: total}

	s.logger.Info("location registry generated",
		slog.Int("ensured", result.Ensured),
		slog.Int("inserted", result.Inserted),
		slog.Int("total", result.Total))
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "generate",
		Entity:   "locations",
		EntityID: "registry",
		Meta:     map[string]any{"inserted": inserted, "total": total},
	}); err != nil {
		s.logger.Warn("audit location generation", slog.Any("error", err))
	}
	return result, nil
}

// Resolve loads a location by id.
func (s *Service) Resolve(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, shared.NotFound("location", "location not found")
	}
	return s.repo.Get(ctx, id)
}

// ResolveCode loads a location by code, accepting any form ParseCode accepts.
func (s *Service) ResolveCode(ctx context.Context, code string) (Location, error) {
	canonical, err := NormaliseCode(code)
	if err != nil {
		return Location{}, shared.NotFound("location", fmt.Sprintf("location %q not found", code))
	}
	return s.repo.GetByCode(ctx, canonical)
}

// List returns locations in aisle, side, letter, level order.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Location, error) {
	return s.repo.List(ctx, filter)
}

// Map builds the warehouse map grouped by aisle.
func (s *Service) Map(ctx context.Context, filter ListFilter) (MapView, error) {
	cells, err := s.repo.Cells(ctx, filter)
	if err != nil {
		return MapView{}, err
	}
	view := MapView{Search: filter.Search, Total: len(cells)}
	byAisle := make(map[int]*AisleView, Aisles)
	order := []int{}
	if filter.Search == "" && filter.Aisle == 0 {
		for aisle := 1; aisle <= Aisles; aisle++ {
			byAisle[aisle] = &AisleView{Aisle: aisle}
			order = append(order, aisle)
		}
	}
	for _, cell := range cells {
		group, ok := byAisle[cell.Aisle]
		if !ok {
			group = &AisleView{Aisle: cell.Aisle}
			byAisle[cell.Aisle] = group
			order = append(order, cell.Aisle)
		}
		if cell.Side == SideRight {
			group.Right = append(group.Right, cell)
		} else {
			group.Left = append(group.Left, cell)
		}
		if cell.Occupied {
			view.Occupied++
		}
	}
	view.Free = view.Total - view.Occupied
	for _, aisle := range order {
		view.Aisles = append(view.Aisles, *byAisle[aisle])
	}
	return view, nil
}

// Detail loads a location with its stock lines, stats and the products that
// may still be assigned to it.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	loc, err := s.Resolve(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Location: loc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines, err := s.stock.StockAt(gctx, id)
		detail.Lines = lines
		return err
	})
	g.Go(func() error {
		options, err := s.repo.Assignable(gctx, id)
		detail.Assignable = options
		return err
	})
	if err := g.Wait(); err != nil {
		return Detail{}, fmt.Errorf("locations: detail %d: %w", id, err)
	}
	for _, line := range detail.Lines {
		detail.Stats.AssignedUnits += line.Quantity
	}
	detail.Stats.ProductCount = len(detail.Lines)
	detail.Stats.Utilisation = Utilisation(detail.Stats.AssignedUnits)
	return detail, nil
}
