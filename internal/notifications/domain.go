package notifications

import (
	"errors"
	"fmt"
	"time"

	"github.com/octabox/octabox/internal/platform/httpx"
)

// Category classifies a notification for display.
type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryUpload  Category = "upload"
	CategoryStorage Category = "storage"
)

// Categories lists the accepted categories in display order.
func Categories() []Category {
	return []Category{CategoryInfo, CategorySuccess, CategoryWarning, CategoryUpload, CategoryStorage}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// RecipientAll addresses every principal.
const RecipientAll = "all"

// Notification is one stored row addressed to a single principal.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Category  Category
	Read      bool
	CreatedAt time.Time
}

// SendRequest is an admin's broadcast input.
type SendRequest struct {
	Title          string   `json:"title" validate:"required"`
	Body           string   `json:"body" validate:"required"`
	Category       Category `json:"category" validate:"required,oneof=info success warning upload storage"`
	Recipient      string   `json:"recipient" validate:"required"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// Draft is the content written once per recipient.
type Draft struct {
	Title    string
	Message  string
	Category Category
}

var (
	// ErrValidation marks a rejected broadcast input.
	ErrValidation = fmt.Errorf("invalid notification: %w", httpx.ErrValidation)
	// ErrForbidden is returned when the write policy rejects the actor.
	ErrForbidden = fmt.Errorf("notification write rejected: %w", httpx.ErrForbidden)
	// ErrBroadcastInFlight is returned while the same actor has a send running.
	ErrBroadcastInFlight = fmt.Errorf("broadcast already in progress: %w", httpx.ErrConflict)
	// ErrBulkWrite wraps a failed bulk insert.
	ErrBulkWrite = errors.New("bulk notification write failed")
)
