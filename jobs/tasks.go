package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/dbuatti/danielebuatti-sub000/internal/jobs"
	"github.com/dbuatti/danielebuatti-sub000/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeIdempotencyCleanup prunes old processed webhook keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// idempotencyRetention is how long processed webhook keys are kept before the
// nightly cleanup removes them.
const idempotencyRetention = 30 * 24 * time.Hour

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task for the scheduler.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// Tasks holds the dependencies shared by task handlers.
type Tasks struct {
	Mailer      Mailer
	Idempotency *shared.IdempotencyStore
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// HandleSendEmail processes TaskTypeSendEmail tasks. A malformed payload is
// skipped rather than retried; delivery failures go back to the queue.
func (t *Tasks) HandleSendEmail(ctx context.Context, task *asynq.Task) error {
	tracker := t.Metrics.Track(TaskTypeSendEmail)
	var payload SendEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Logger.Error("malformed mail payload", slog.Any("error", err))
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if err := t.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		t.Logger.Warn("mail delivery failed, will retry",
			slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(err)
	}
	t.Logger.Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

// HandleIdempotencyCleanup prunes old processed keys.
func (t *Tasks) HandleIdempotencyCleanup(ctx context.Context, task *asynq.Task) error {
	tracker := t.Metrics.Track(TaskTypeIdempotencyCleanup)
	if err := t.Idempotency.Cleanup(ctx, idempotencyRetention); err != nil {
		t.Logger.Warn("idempotency cleanup failed", slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}
