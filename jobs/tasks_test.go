package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []SendEmailPayload
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, SendEmailPayload{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func TestHandleSendEmailDelivers(t *testing.T) {
	mailer := &fakeMailer{}
	tasks := &Tasks{Mailer: mailer, Logger: slog.Default()}

	task, err := NewSendEmailTask(SendEmailPayload{
		To: "alex@example.com", Subject: "Hi", Body: "<p>Hi</p>",
	})
	require.NoError(t, err)

	require.NoError(t, tasks.HandleSendEmail(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alex@example.com", mailer.sent[0].To)
}

func TestHandleSendEmailSkipsMalformedPayload(t *testing.T) {
	tasks := &Tasks{Mailer: &fakeMailer{}, Logger: slog.Default()}

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	err := tasks.HandleSendEmail(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSendEmailRetriesOnDeliveryFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	tasks := &Tasks{Mailer: mailer, Logger: slog.Default()}

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@b.c", Subject: "s", Body: "b"})
	require.NoError(t, err)

	err = tasks.HandleSendEmail(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
