package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/octabox/octabox/internal/jobs"
)

// TaskSessionSweep deletes expired auth sessions and stale idempotency keys.
const TaskSessionSweep = "sessions:sweep"

// NewSessionSweepTask builds the sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// SessionSweeper removes auth sessions past their expiry.
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionSweepJob is the periodic cleanup handler.
type SessionSweepJob struct {
	Sessions  SessionSweeper
	Keys      KeyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle runs one sweep.
func (j *SessionSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("session sweep: handler not configured")
	}
	tracker := j.metrics().Track(TaskSessionSweep)
	logger := j.logger()

	sessions, err := j.Sessions.SweepExpired(ctx)
	if err != nil {
		logger.Error("sweep expired sessions", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddSwept("sessions", sessions)

	var keys int64
	if j.Keys != nil && j.Retention > 0 {
		keys, err = j.Keys.Cleanup(ctx, j.Retention)
		if err != nil {
			logger.Error("cleanup idempotency keys", slog.Any("error", err))
			return tracker.End(err)
		}
		j.metrics().AddSwept("idempotency_keys", keys)
	}

	logger.Info("sweep completed", slog.Int64("sessions", sessions), slog.Int64("idempotency_keys", keys))
	return tracker.End(nil)
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionSweep))
	}
	return slog.Default().With(slog.String("job", TaskSessionSweep))
}

func (j *SessionSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
