package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/octabox/octabox/internal/observability"
	"github.com/octabox/octabox/internal/shared"
)

const idempotencyModule = "notifications.broadcast"

// Directory lists broadcast targets.
type Directory interface {
	ListPrincipalIDs(ctx context.Context) ([]string, error)
}

// Locker serializes sends per actor.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// IdempotencyRecorder records processed request keys.
type IdempotencyRecorder interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Auditor records successful broadcasts.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service performs admin broadcasts.
type Service struct {
	repo        Repository
	directory   Directory
	locker      Locker
	idempotency IdempotencyRecorder
	audit       Auditor
	metrics     *observability.Metrics
	logger      *slog.Logger
	validate    *validator.Validate
}

// ServiceDeps groups the Service collaborators. Only Repo and Directory are
// required.
type ServiceDeps struct {
	Repo        Repository
	Directory   Directory
	Locker      Locker
	Idempotency IdempotencyRecorder
	Audit       Auditor
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        deps.Repo,
		directory:   deps.Directory,
		locker:      deps.Locker,
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Normalize trims the request and applies the default category.
func Normalize(req SendRequest) SendRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	req.Category = Category(strings.ToLower(strings.TrimSpace(string(req.Category))))
	if req.Category == "" {
		req.Category = CategoryInfo
	}
	return req
}

// Send writes one notification per addressed principal and returns the
// number of rows written. Nothing is written when validation fails.
func (s *Service) Send(ctx context.Context, actorID string, req SendRequest) (int, error) {
	req = Normalize(req)
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.BroadcastLockKey(actorID))
		if err != nil {
			if errors.Is(err, shared.ErrLocked) {
				return 0, ErrBroadcastInFlight
			}
			return 0, err
		}
		defer release()
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
			return 0, err
		}
	}

	recipients, err := s.recipients(ctx, req.Recipient)
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return 0, err
	}

	written, err := s.repo.InsertBatch(ctx, actorID, recipients, Draft{Title: req.Title, Message: req.Body, Category: req.Category})
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		if errors.Is(err, ErrForbidden) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrBulkWrite, err)
	}

	s.metrics.NotificationsSent(string(req.Category), int(written))
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditBroadcast,
			Entity:   shared.AuditEntityNotif,
			EntityID: req.Recipient,
			Meta:     map[string]any{"category": string(req.Category), "count": written, "title": req.Title},
		}); err != nil {
			s.logger.Warn("audit broadcast", slog.Any("error", err))
		}
	}
	return int(written), nil
}

// ListRecent returns the newest notifications for the admin console.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	return s.repo.ListRecent(ctx, limit)
}

// Count returns the total number of stored notifications.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) recipients(ctx context.Context, recipient string) ([]string, error) {
	if recipient != RecipientAll {
		return []string{recipient}, nil
	}
	ids, err := s.directory.ListPrincipalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBulkWrite, err)
	}
	return ids, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Delete(ctx, key); err != nil {
		s.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "oneof":
			parts = append(parts, "unknown category "+fmt.Sprint(fe.Value()))
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
