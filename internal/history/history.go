// Package history records the outcome of every delivery attempt.
package history

import (
	"context"
	"time"
)

// Outcome is the final state of a delivery attempt.
type Outcome string

// Delivery outcomes.
const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
)

// Record describes one delivery attempt.
type Record struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	NotificationID int       `json:"notification_id"`
	Endpoint       string    `json:"endpoint,omitempty"`
	MIMEType       string    `json:"mime_type,omitempty"`
	DetectedMIME   string    `json:"detected_mime,omitempty"`
	Size           int64     `json:"size"`
	Outcome        Outcome   `json:"outcome"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration returns how long the attempt took.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists delivery records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)

	// PruneBefore deletes records that finished before t and reports how
	// many were removed.
	PruneBefore(ctx context.Context, t time.Time) (int, error)
}
