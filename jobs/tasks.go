package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/octabox/octabox/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// WelcomeEmail builds the message sent after sign-up.
func WelcomeEmail(email, name string) SendEmailPayload {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	return SendEmailPayload{
		To:      email,
		Subject: "Welcome to OCTABOX",
		Body: fmt.Sprintf("%s,\n\nYour OCTABOX account is ready. Connect your apps from the Integrations page to start syncing files.\n\nThe OCTABOX team\n", greeting),
	}
}

// Sender delivers a composed email.
type Sender interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// MailJob processes TaskTypeSendEmail tasks.
type MailJob struct {
	Sender  Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailJob wires dependencies for the mail handler.
func NewMailJob(sender Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle sends one email. Malformed payloads are not retried.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("mail job: sender not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return fmt.Errorf("mail job: empty recipient: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskTypeSendEmail)
	err := j.Sender.Send(ctx, payload)
	if err != nil {
		j.logger().Error("send email", slog.String("subject", payload.Subject), slog.Any("error", err))
	} else {
		j.logger().Info("email sent", slog.String("subject", payload.Subject))
	}
	return tracker.End(err)
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}

func (j *MailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
