package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGenerateLocations ensures every slot of the registry exists.
	TaskGenerateLocations = "locations:generate"
	// TaskInventoryReconcile reports products whose assigned units exceed
	// their total quantity.
	TaskInventoryReconcile = "inventory:reconcile"
)

// GenerateLocationsPayload identifies who requested a generation run. It is
// hashed into the uniqueness key, so it must not carry per-call values such as
// timestamps.
type GenerateLocationsPayload struct {
	ActorID int64 `json:"actor_id"`
}

// NewGenerateLocationsTask constructs the registry generation task. While a
// run for the same payload is queued, enqueueing another one fails with
// asynq.ErrDuplicateTask.
func NewGenerateLocationsTask(payload GenerateLocationsPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateLocations, body,
		asynq.Queue(QueueDefault),
		asynq.Unique(10*time.Minute),
		asynq.MaxRetry(3),
	), nil
}

// ReconcilePayload carries scheduling metadata.
type ReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReconcileTask constructs the reconciliation report task.
func NewReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}
