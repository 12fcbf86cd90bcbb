package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

const defaultMaxAttempts = 5

// Worker delivers terminal session outcomes and retries failed deliveries
// from an in-memory queue.
type Worker struct {
	service      *Service
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
	queue        []*Job
}

func NewWorker(service *Service, logger *slog.Logger) *Worker {
	return &Worker{
		service:      service,
		logger:       logger.With("component", "webhook"),
		pollInterval: 5 * time.Second,
		maxAttempts:  defaultMaxAttempts,
	}
}

// Run consumes updates until the channel closes or ctx is done
func (w *Worker) Run(ctx context.Context, updates <-chan domain.Update) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped", "pending", len(w.queue))
			return
		case update, ok := <-updates:
			if !ok {
				w.logger.Info("webhook worker stopped", "pending", len(w.queue))
				return
			}
			if job := w.jobFor(update); job != nil {
				w.attempt(ctx, job)
			}
		case <-ticker.C:
			w.processQueue(ctx)
		}
	}
}

// jobFor builds a delivery for terminal updates and ignores the rest
func (w *Worker) jobFor(update domain.Update) *Job {
	eventType := eventTypeFor(update.Status)
	if eventType == "" {
		return nil
	}

	event := EventPayload{
		ID:        uuid.New(),
		Type:      eventType,
		Data:      update,
		SessionID: update.SessionID,
		UserID:    update.UserID,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.Error("failed to marshal webhook event", "error", err)
		return nil
	}

	return &Job{
		ID:          event.ID,
		EventType:   eventType,
		Payload:     payload,
		MaxAttempts: w.maxAttempts,
	}
}

func eventTypeFor(status domain.Status) string {
	switch status {
	case domain.StatusCompleted:
		return EventSessionCompleted
	case domain.StatusFailed:
		return EventSessionFailed
	case domain.StatusStopped:
		return EventSessionStopped
	}
	return ""
}

func (w *Worker) processQueue(ctx context.Context) {
	now := time.Now()
	pending := w.queue
	w.queue = nil

	for _, job := range pending {
		if job.NextRetryAt.After(now) {
			w.queue = append(w.queue, job)
			continue
		}
		w.attempt(ctx, job)
	}
}

func (w *Worker) attempt(ctx context.Context, job *Job) {
	job.Attempts++

	err := w.service.Send(ctx, job.EventType, job.Payload)
	if err == nil {
		return
	}

	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts {
		w.logger.Error("webhook delivery failed permanently",
			"job_id", job.ID,
			"event_type", job.EventType,
			"attempts", job.Attempts,
			"error", err,
		)
		return
	}

	job.NextRetryAt = time.Now().Add(calculateBackoff(job.Attempts))
	w.queue = append(w.queue, job)
	w.logger.Warn("webhook delivery failed, will retry",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"next_retry_at", job.NextRetryAt,
		"error", err,
	)
}

// calculateBackoff returns 1s, 4s, 9s, ... capped at one minute
func calculateBackoff(attempts int) time.Duration {
	backoff := time.Duration(attempts*attempts) * time.Second
	if backoff > time.Minute {
		return time.Minute
	}
	return backoff
}
