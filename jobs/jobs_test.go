package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/inventory"
	jobmetrics "github.com/stockgrid/stockgrid/internal/jobs"
	"github.com/stockgrid/stockgrid/internal/locations"
)

type stubRegistry struct {
	actor int64
	err   error
}

func (s *stubRegistry) Generate(_ context.Context, actorID int64) (locations.GenerateResult, error) {
	s.actor = actorID
	if s.err != nil {
		return locations.GenerateResult{}, s.err
	}
	return locations.GenerateResult{Ensured: locations.TotalSlots, Inserted: 10, Total: locations.TotalSlots}, nil
}

type stubLedger struct {
	rows  []inventory.ReconcileRow
	err   error
	calls int
}

func (s *stubLedger) Reconcile(context.Context) ([]inventory.ReconcileRow, error) {
	s.calls++
	return s.rows, s.err
}

func TestGenerateLocationsJob(t *testing.T) {
	registry := &stubRegistry{}
	job := NewGenerateLocationsJob(registry, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewGenerateLocationsTask(GenerateLocationsPayload{ActorID: 4})
	require.NoError(t, err)
	assert.Equal(t, TaskGenerateLocations, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, int64(4), registry.actor)

	registry.err = errors.New("redis down")
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestJobsSkipRetryOnBadPayload(t *testing.T) {
	bad := asynq.NewTask(TaskInventoryReconcile, []byte("{"))
	err := NewReconcileJob(&stubLedger{}, nil, nil).Handle(context.Background(), bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = NewGenerateLocationsJob(&stubRegistry{}, nil, nil).Handle(context.Background(), asynq.NewTask(TaskGenerateLocations, []byte("nope")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileJobReportsOnly(t *testing.T) {
	ledger := &stubLedger{rows: []inventory.ReconcileRow{{ProductID: 1, Name: "Bolt-M6", TotalQuantity: 100, Assigned: 120}}}
	job := NewReconcileJob(ledger, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewReconcileTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, ledger.calls)
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(nil, nil).health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}

func TestScheduleGenerateQueuesOneRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	_, err = client.EnqueueGenerateLocations(ctx, 1)
	require.NoError(t, err)
	_, err = client.EnqueueGenerateLocations(ctx, 1)
	require.ErrorIs(t, err, asynq.ErrDuplicateTask)
	require.NoError(t, client.ScheduleGenerate(ctx, 1))

	pending, err := mr.List("asynq:{" + QueueDefault + "}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
