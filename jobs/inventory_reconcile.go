package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockgrid/stockgrid/internal/inventory"
	jobmetrics "github.com/stockgrid/stockgrid/internal/jobs"
)

// LedgerReconciler lists overcommitted products.
type LedgerReconciler interface {
	Reconcile(ctx context.Context) ([]inventory.ReconcileRow, error)
}

// ReconcileJob logs every product whose assigned units exceed its total
// quantity. It reports only and never changes the ledger.
type ReconcileJob struct {
	Ledger  LedgerReconciler
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileJob initialises the handler.
func NewReconcileJob(ledger LedgerReconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Ledger: ledger, Logger: logger, Metrics: metrics}
}

// Handle executes the reconciliation report.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Ledger == nil {
		return errors.New("reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskInventoryReconcile)
	defer func() {
		_ = tracker.End(err)
	}()

	logger := logOrDefault(j.Logger)
	rows, err := j.Ledger.Reconcile(ctx)
	if err != nil {
		logger.Error("reconcile failed", slog.Any("error", err))
		return err
	}
	for _, row := range rows {
		logger.Warn("product overcommitted",
			slog.Int64("product_id", row.ProductID),
			slog.String("name", row.Name),
			slog.Int("total_quantity", row.TotalQuantity),
			slog.Int("assigned", row.Assigned),
		)
	}
	j.Metrics.SetOvercommitted(len(rows))
	logger.Info("reconcile completed", slog.Int("overcommitted", len(rows)))
	return nil
}
