package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/octabox/octabox/internal/platform/db"
)

// Audit actions recorded by the service.
const (
	AuditSignIn      = "auth.sign_in"
	AuditSignOut     = "auth.sign_out"
	AuditAccessDeny  = "admin.access_denied"
	AuditBroadcast   = "notifications.broadcast"
	AuditEntitySess  = "session"
	AuditEntityNotif = "notification"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db db.DBTX
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(conn db.DBTX) *AuditLogger {
	return &AuditLogger{db: conn}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES (NULLIF($1, ''), $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
