package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockgrid/stockgrid/internal/jobs"
	"github.com/stockgrid/stockgrid/internal/locations"
)

// LocationGenerator is the registry operation the job drives.
type LocationGenerator interface {
	Generate(ctx context.Context, actorID int64) (locations.GenerateResult, error)
}

// GenerateLocationsJob runs registry generation outside the request path.
type GenerateLocationsJob struct {
	Registry LocationGenerator
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewGenerateLocationsJob initialises the handler.
func NewGenerateLocationsJob(registry LocationGenerator, logger *slog.Logger, metrics *jobmetrics.Metrics) *GenerateLocationsJob {
	return &GenerateLocationsJob{Registry: registry, Logger: logger, Metrics: metrics}
}

// Handle executes a generation run. Lock contention with another run is
// retried by asynq.
func (j *GenerateLocationsJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Registry == nil {
		return errors.New("generate locations: handler not configured")
	}
	var payload GenerateLocationsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskGenerateLocations)
	defer func() {
		_ = tracker.End(err)
	}()

	start := time.Now()
	logger := logOrDefault(j.Logger).With(slog.Int64("actor_id", payload.ActorID))
	result, err := j.Registry.Generate(ctx, payload.ActorID)
	if err != nil {
		logger.Error("location generation failed", slog.Any("error", err))
		return err
	}
	j.Metrics.SetLocations(result.Total)
	logger.Info("location generation completed",
		slog.Int("inserted", result.Inserted),
		slog.Int("total", result.Total),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func logOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
