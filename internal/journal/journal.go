// Package journal keeps a record of batch runs and upload reports.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tells which operation produced an entry.
type Kind string

const (
	KindBatch  Kind = "batch"
	KindIngest Kind = "ingest"
)

// Outcome is the result recorded for a single order.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
)

// Item is the outcome for one order of an entry.
type Item struct {
	OrderID string  `json:"order_id"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Entry is one journalled run.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"kind"`
	Action     string    `json:"action"`
	View       string    `json:"view,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Items      []Item    `json:"items"`
}

// Repository stores journal entries.
type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
}

// NotFoundError represents an error when an entry is not found
type NotFoundError struct {
	ID uuid.UUID
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("journal entry with id %s not found", e.ID)
}
