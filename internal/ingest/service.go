package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/clock"
	"github.com/CameronXie/order-desk/internal/journal"
	"github.com/CameronXie/order-desk/internal/metrics"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/shopify"
)

const actionUpload = "upload"

// ErrNoRows is returned when an upload has nothing to send.
var ErrNoRows = errors.New("no data to send")

// PendingClient submits pending orders in bulk.
type PendingClient interface {
	AddToPending(ctx context.Context, orders []shopify.OrderPayload) error
}

// Confirmer submits confirmed orders one request each.
type Confirmer interface {
	Confirm(ctx context.Context, payloads []shopify.OrderPayload, progress batch.ProgressFunc) *batch.Result
}

// Preview is a normalised upload with its classification counts.
type Preview struct {
	Rows      []Row `json:"rows"`
	Confirmed int   `json:"confirmed"`
	Pending   int   `json:"pending"`
}

// RowOutcome is the final result of one uploaded row.
type RowOutcome struct {
	Row            int             `json:"row"`
	OrderID        string          `json:"order_id"`
	Classification Classification  `json:"classification"`
	Outcome        journal.Outcome `json:"outcome"`
	Reason         string          `json:"reason,omitempty"`
}

// Report summarises a submitted upload.
type Report struct {
	ID        uuid.UUID    `json:"id"`
	Confirmed int          `json:"confirmed"`
	Pending   int          `json:"pending"`
	Rejected  int          `json:"rejected"`
	Failed    int          `json:"failed"`
	Rows      []RowOutcome `json:"rows"`
}

// Summary renders the counts for the operator.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Processed %d confirmed and %d pending orders. %d rejected, %d failed.",
		r.Confirmed, r.Pending, r.Rejected, r.Failed,
	)
}

// Service previews and submits uploads.
type Service struct {
	client    PendingClient
	confirmer Confirmer
	builder   *Builder
	clock     clock.Clock
	journal   journal.Repository
	notifier  notify.Notifier
	metrics   *metrics.Collectors
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the system clock used for missing order dates.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithJournal records every report in repo.
func WithJournal(repo journal.Repository) Option {
	return func(s *Service) {
		s.journal = repo
	}
}

// WithNotifier sends the report summary to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMetrics counts rows by classification and outcome.
func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service.
func NewService(client PendingClient, confirmer Confirmer, opts ...Option) *Service {
	s := &Service{
		client:    client,
		confirmer: confirmer,
		builder:   NewBuilder(),
		clock:     clock.NewSystem(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses and normalises an upload.
func (s *Service) Load(r io.Reader) ([]Row, error) {
	rows, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Normalize(rows), nil
}

// Preview parses, normalises and classifies an upload without sending it.
func (s *Service) Preview(r io.Reader) (*Preview, error) {
	rows, err := s.Load(r)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Rows: rows}
	for i := range rows {
		if Classify(&rows[i]) == Confirmed {
			preview.Confirmed++
		} else {
			preview.Pending++
		}
	}

	return preview, nil
}

// Submit sends normalised rows: confirmed rows one request each, then every
// pending row in one bulk request. progress counts each confirmed request and
// the bulk request once.
func (s *Service) Submit(ctx context.Context, rows []Row, progress batch.ProgressFunc) (*Report, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	started := s.clock.Now()
	sub, err := s.builder.Build(rows, started)
	if err != nil {
		return nil, err
	}

	report := &Report{ID: uuid.New(), Rows: make([]RowOutcome, len(sub.Rows))}
	for i, r := range sub.Rows {
		report.Rows[i] = RowOutcome{Row: r.Row, OrderID: r.OrderID, Classification: r.Classification}
		if r.Verdict == Rejected {
			report.Rows[i].Outcome = journal.OutcomeRejected
			report.Rows[i].Reason = r.Reason
			report.Rejected++
		}
	}

	confirmed := sub.Confirmed()
	pending := sub.Pending()

	total := len(confirmed)
	if len(pending) > 0 {
		total++
	}
	advance := func(completed int) {
		if progress != nil {
			progress(batch.Progress{Completed: completed, Total: total})
		}
	}

	if len(confirmed) > 0 {
		payloads := make([]shopify.OrderPayload, len(confirmed))
		for i, idx := range confirmed {
			payloads[i] = sub.Rows[idx].Payload
		}

		result := s.confirmer.Confirm(ctx, payloads, func(p batch.Progress) {
			advance(p.Completed)
		})

		for i, item := range result.Items {
			out := &report.Rows[confirmed[i]]
			if item.Err != nil {
				out.Outcome = journal.OutcomeFailed
				out.Reason = item.Err.Error()
				report.Failed++
				s.logger.WarnContext(ctx, "failed to confirm order", "order_id", item.OrderID, "error", item.Err)
				continue
			}
			out.Outcome = journal.OutcomeSucceeded
			report.Confirmed++
		}
	}

	if len(pending) > 0 {
		payloads := make([]shopify.OrderPayload, len(pending))
		for i, idx := range pending {
			payloads[i] = sub.Rows[idx].Payload
		}

		err := s.client.AddToPending(ctx, payloads)
		for _, idx := range pending {
			out := &report.Rows[idx]
			if err != nil {
				out.Outcome = journal.OutcomeFailed
				out.Reason = err.Error()
				report.Failed++
				continue
			}
			out.Outcome = journal.OutcomeSucceeded
			report.Pending++
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to process pending orders", "count", len(pending), "error", err)
		}
		advance(total)
	}

	for _, r := range report.Rows {
		s.metrics.ObserveIngestRow(string(r.Classification), string(r.Outcome))
	}

	s.logger.InfoContext(ctx, "upload submitted",
		"report_id", report.ID,
		"confirmed", report.Confirmed,
		"pending", report.Pending,
		"rejected", report.Rejected,
		"failed", report.Failed,
	)

	s.notifySummary(ctx, report)
	s.record(ctx, report, started)

	return report, nil
}

func (s *Service) notifySummary(ctx context.Context, report *Report) {
	if s.notifier == nil {
		return
	}

	level := notify.LevelSuccess
	if report.Failed > 0 || report.Rejected > 0 {
		level = notify.LevelWarning
	}

	if err := s.notifier.Send(ctx, notify.Toast(level, "", "%s", report.Summary())); err != nil {
		s.logger.WarnContext(ctx, "failed to send upload notification", "report_id", report.ID, "error", err)
	}
}

func (s *Service) record(ctx context.Context, report *Report, started time.Time) {
	if s.journal == nil {
		return
	}

	entry := &journal.Entry{
		ID:         report.ID,
		Kind:       journal.KindIngest,
		Action:     actionUpload,
		StartedAt:  started,
		FinishedAt: s.clock.Now(),
		Succeeded:  report.Confirmed + report.Pending,
		Failed:     report.Failed + report.Rejected,
		Items:      make([]journal.Item, 0, len(report.Rows)),
	}
	for _, r := range report.Rows {
		entry.Items = append(entry.Items, journal.Item{OrderID: r.OrderID, Outcome: r.Outcome, Reason: r.Reason})
	}

	if err := s.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to record upload", "report_id", report.ID, "error", err)
	}
}
