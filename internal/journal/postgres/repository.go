package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CameronXie/order-desk/internal/journal"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal_entries (
    id          UUID PRIMARY KEY,
    kind        TEXT        NOT NULL,
    action      TEXT        NOT NULL,
    view        TEXT        NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    succeeded   INTEGER     NOT NULL,
    failed      INTEGER     NOT NULL,
    items       JSONB       NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS journal_entries_started_at_idx ON journal_entries (started_at DESC);`

const selectColumns = "SELECT id, kind, action, view, started_at, finished_at, succeeded, failed, items FROM journal_entries"

// Repository provides database operations for journal entries
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// EnsureSchema creates the journal table when it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}

	return nil
}

// Record inserts a journal entry, assigning an id when it has none
func (r *Repository) Record(ctx context.Context, entry *journal.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	items, err := json.Marshal(nonNilItems(entry.Items))
	if err != nil {
		return fmt.Errorf("failed to encode journal items: %w", err)
	}

	query := `INSERT INTO journal_entries (id, kind, action, view, started_at, finished_at, succeeded, failed, items)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(
		ctx,
		query,
		entry.ID,
		string(entry.Kind),
		entry.Action,
		entry.View,
		entry.StartedAt,
		entry.FinishedAt,
		entry.Succeeded,
		entry.Failed,
		items,
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}

	return nil
}

// List retrieves up to limit entries, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]journal.Entry, error) {
	query := selectColumns + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return entries, nil
}

// Get retrieves a journal entry by its ID
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, selectColumns+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &journal.NotFoundError{ID: id}
		}
		return nil, err
	}

	return entry, nil
}

func scanEntry(row pgx.Row) (*journal.Entry, error) {
	var (
		entry journal.Entry
		kind  string
		items []byte
	)

	err := row.Scan(
		&entry.ID,
		&kind,
		&entry.Action,
		&entry.View,
		&entry.StartedAt,
		&entry.FinishedAt,
		&entry.Succeeded,
		&entry.Failed,
		&items,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	entry.Kind = journal.Kind(kind)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &entry.Items); err != nil {
			return nil, fmt.Errorf("decode items for journal entry %s: %w", entry.ID, err)
		}
	}

	return &entry, nil
}

func nonNilItems(items []journal.Item) []journal.Item {
	if items == nil {
		return []journal.Item{}
	}
	return items
}
