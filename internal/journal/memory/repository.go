// Package memory keeps the journal in process memory. Entries are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/CameronXie/order-desk/internal/journal"
)

// Repository is an in-memory journal.Repository.
type Repository struct {
	mu      sync.RWMutex
	entries []journal.Entry
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Record appends entry, assigning an id when it has none.
func (r *Repository) Record(ctx context.Context, entry *journal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	stored := *entry
	stored.Items = append([]journal.Item(nil), entry.Items...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, stored)

	return nil
}

// List returns up to limit entries, newest first. A non-positive limit returns all of them.
func (r *Repository) List(ctx context.Context, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]journal.Entry, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}

	return out, nil
}

// Get returns the entry with the given id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			entry := r.entries[i]
			return &entry, nil
		}
	}

	return nil, &journal.NotFoundError{ID: id}
}
