package worker

import (
	"context"
	"errors"
	"time"

	"roomly/internal/database"
	"roomly/internal/domain"
	"roomly/internal/metrics"
	"roomly/internal/models"

	"github.com/rs/zerolog"
)

// NotifyWorker drains the notify_outbox table and delivers messages through
// a Notifier with exponential backoff. Tasks survive restarts because the
// outbox is the source of truth; the wake channel only shortens latency.
type NotifyWorker struct {
	db           *database.DB
	notifier     domain.Notifier
	retryPolicy  RetryPolicy
	wake         chan struct{}
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(db *database.DB, notifier domain.Notifier, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &NotifyWorker{
		db:           db,
		notifier:     notifier,
		retryPolicy:  retry,
		wake:         make(chan struct{}, 1),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		logger:       logger,
	}
}

// Enqueue persists a notification task and wakes the delivery loop.
func (w *NotifyWorker) Enqueue(ctx context.Context, eventType string, text string) error {
	if eventType == "" {
		return errors.New("event type is required")
	}
	if text == "" {
		return errors.New("notification text is required")
	}

	task := &models.NotifyTask{
		EventType: eventType,
		Payload:   text,
		Status:    "pending",
	}
	if err := w.db.CreateNotifyTask(ctx, task); err != nil {
		return err
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run processes pending tasks until the context is cancelled.
func (w *NotifyWorker) Run(ctx context.Context) {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("notify worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("notify worker stopped")
			return
		case <-w.wake:
		case <-ticker.C:
		}

		w.processBatch(ctx)
	}
}

func (w *NotifyWorker) processBatch(ctx context.Context) {
	tasks, err := w.db.GetPendingNotifyTasks(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to fetch pending notify tasks")
		return
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		w.processTask(ctx, task)
	}
}

func (w *NotifyWorker) processTask(ctx context.Context, task models.NotifyTask) {
	err := w.notifier.Notify(ctx, task.Payload)
	if err == nil {
		metrics.IncNotifyDelivery("delivered")
		if updErr := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "completed", "", nil); updErr != nil {
			w.logger.Error().Err(updErr).Int64("task_id", task.ID).Msg("failed to mark task completed")
		}
		return
	}

	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		metrics.IncNotifyDelivery("failed")
		w.logger.Error().Err(err).Int64("task_id", task.ID).Int("attempts", attempt).Msg("notification permanently failed")
		if updErr := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "failed", err.Error(), nil); updErr != nil {
			w.logger.Error().Err(updErr).Int64("task_id", task.ID).Msg("failed to mark task failed")
		}
		return
	}

	metrics.IncNotifyDelivery("retry")
	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(err).Int64("task_id", task.ID).Time("next_retry_at", next).Msg("notification delivery failed, will retry")
	if updErr := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "retry", err.Error(), &next); updErr != nil {
		w.logger.Error().Err(updErr).Int64("task_id", task.ID).Msg("failed to schedule retry")
	}
}
