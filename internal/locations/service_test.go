package locations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	byCode     map[string]Location
	stock      map[int64][]StockLine
	assignable map[int64][]ProductOption
	failAfter  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byCode:     map[string]Location{},
		stock:      map[int64][]StockLine{},
		assignable: map[int64][]ProductOption{},
	}
}

var errInterrupted = errors.New("connection reset")

func (m *memoryRepo) EnsureAll(ctx context.Context, slots []Location) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for i, slot := range slots {
		if m.failAfter > 0 && i == m.failAfter {
			m.failAfter = 0
			return inserted, errInterrupted
		}
		if _, ok := m.byCode[slot.Code]; ok {
			continue
		}
		m.nextID++
		slot.ID = m.nextID
		m.byCode[slot.Code] = slot
		inserted++
	}
	return inserted, nil
}

func (m *memoryRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byCode), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, loc := range m.byCode {
		if loc.ID == id {
			return loc, nil
		}
	}
	return Location{}, shared.NotFound("location", "location not found")
}

func (m *memoryRepo) GetByCode(ctx context.Context, code string) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.byCode[code]
	if !ok {
		return Location{}, shared.NotFound("location", "location not found")
	}
	return loc, nil
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Location{}
	for _, loc := range m.byCode {
		if filter.Aisle > 0 && loc.Aisle != filter.Aisle {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(loc.Code), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) Cells(ctx context.Context, filter ListFilter) ([]Cell, error) {
	locs, _ := m.List(ctx, filter)
	m.mu.Lock()
	defer m.mu.Unlock()
	cells := make([]Cell, 0, len(locs))
	for _, loc := range locs {
		n := len(m.stock[loc.ID])
		cells = append(cells, Cell{Location: loc, Occupied: n > 0, ProductCount: n})
	}
	return cells, nil
}

func (m *memoryRepo) StockAt(ctx context.Context, locationID int64) ([]StockLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StockLine(nil), m.stock[locationID]...), nil
}

func (m *memoryRepo) Assignable(ctx context.Context, locationID int64) ([]ProductOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProductOption(nil), m.assignable[locationID]...), nil
}

type recordingAudit struct {
	entries []shared.AuditLog
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return nil, shared.ErrConflict
}

func TestGenerateIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, repo, audit, nil, nil)

	first, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 750, first.Ensured)
	require.Equal(t, 750, first.Inserted)
	require.Equal(t, 750, first.Total)

	second, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, second.Inserted)
	require.Equal(t, 750, second.Total)
	require.Len(t, audit.entries, 2)
}

func TestGenerateCompletesInterruptedRun(t *testing.T) {
	repo := newMemoryRepo()
	repo.failAfter = 300
	svc := NewService(repo, repo, nil, nil, nil)

	_, err := svc.Generate(context.Background(), 1)
	require.ErrorIs(t, err, errInterrupted)
	count, _ := repo.Count(context.Background())
	require.Equal(t, 300, count)

	result, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 450, result.Inserted)
	require.Equal(t, 750, result.Total)
}

func TestGenerateRespectsLock(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, busyLocker{}, nil)
	_, err := svc.Generate(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestResolve(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil, nil)
	_, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)

	loc, err := svc.ResolveCode(context.Background(), "P01-a-2")
	require.NoError(t, err)
	require.Equal(t, "01-A-2", loc.Code)

	byID, err := svc.Resolve(context.Background(), loc.ID)
	require.NoError(t, err)
	require.Equal(t, loc, byID)

	_, err = svc.ResolveCode(context.Background(), "99-Z-9")
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Resolve(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Resolve(context.Background(), 10_000)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	_, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 750)

	aisle, err := svc.List(context.Background(), ListFilter{Aisle: 3})
	require.NoError(t, err)
	require.Len(t, aisle, 50)
	for _, loc := range aisle {
		require.Equal(t, 3, loc.Aisle)
	}

	search, err := svc.List(context.Background(), ListFilter{Search: "07-j"})
	require.NoError(t, err)
	require.Len(t, search, 5)
}

func TestMapGroupsByAisleAndCountsOccupancy(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil, nil)
	_, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)

	a1, _ := repo.GetByCode(context.Background(), "01-A-1")
	f1, _ := repo.GetByCode(context.Background(), "01-F-1")
	repo.stock[a1.ID] = []StockLine{{ProductID: 1, Quantity: 5}}
	repo.stock[f1.ID] = []StockLine{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 1}}

	view, err := svc.Map(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, view.Aisles, 15)
	require.Equal(t, 750, view.Total)
	require.Equal(t, 2, view.Occupied)
	require.Equal(t, 748, view.Free)
	require.Len(t, view.Aisles[0].Left, 25)
	require.Len(t, view.Aisles[0].Right, 25)
	require.True(t, view.Aisles[0].Left[0].Occupied)
	require.Equal(t, 2, view.Aisles[0].Right[0].ProductCount)

	filtered, err := svc.Map(context.Background(), ListFilter{Search: "03-B"})
	require.NoError(t, err)
	require.Len(t, filtered.Aisles, 1)
	require.Equal(t, 3, filtered.Aisles[0].Aisle)
	require.Len(t, filtered.Aisles[0].Left, 5)
	require.Empty(t, filtered.Aisles[0].Right)
}

func TestDetailStats(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, repo, nil, nil, nil)
	_, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	loc, _ := repo.GetByCode(context.Background(), "02-C-4")
	repo.stock[loc.ID] = []StockLine{
		{AssignmentID: 1, ProductID: 1, ProductName: "Bolt-M6", Quantity: 20},
		{AssignmentID: 2, ProductID: 2, ProductName: "Nut-M6", Quantity: 12},
	}
	repo.assignable[loc.ID] = []ProductOption{{ID: 3, Name: "Washer", TotalQuantity: 9}}

	detail, err := svc.Detail(context.Background(), loc.ID)
	require.NoError(t, err)
	require.Equal(t, 32, detail.Stats.AssignedUnits)
	require.Equal(t, 2, detail.Stats.ProductCount)
	require.Equal(t, 64, detail.Stats.Utilisation)
	require.Len(t, detail.Assignable, 1)

	_, err = svc.Detail(context.Background(), 99_999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
