// Package batch dispatches one remote request per selected order, in parallel,
// and reconciles the outcome of each order separately.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/journal"
	"github.com/CameronXie/order-desk/internal/metrics"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/orderview"
	"github.com/CameronXie/order-desk/internal/shopify"
)

const defaultRefetchDelay = time.Second

var (
	// ErrEmptySelection is returned when a dispatch targets no orders.
	ErrEmptySelection = errors.New("no orders selected")

	// ErrMissingData fails ship requests for orders lacking required fields.
	ErrMissingData = errors.New("missing data")

	errNotInList = errors.New("order not found in list")
)

// Client is the subset of the remote API the dispatcher calls.
type Client interface {
	Submit(ctx context.Context, endpoint shopify.Endpoint, payload shopify.OrderPayload) error
	MoveToAllOrders(ctx context.Context, orderID string) error
}

// Refresher refetches a view once the backend has settled after a successful run.
type Refresher func(ctx context.Context, view string)

// Progress reports how many requests of a run have settled.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percentage returns the settled share rounded to a whole percent.
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
}

// ProgressFunc is called after every settled request.
type ProgressFunc func(Progress)

// Item is the outcome for one order.
type Item struct {
	OrderID string
	Err     error
}

// MarshalJSON renders Err as a message.
func (i Item) MarshalJSON() ([]byte, error) {
	out := struct {
		OrderID string `json:"order_id"`
		OK      bool   `json:"ok"`
		Error   string `json:"error,omitempty"`
	}{OrderID: i.OrderID, OK: i.Err == nil}
	if i.Err != nil {
		out.Error = i.Err.Error()
	}
	return json.Marshal(out)
}

// Result is the outcome of a run.
type Result struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	View      string    `json:"view,omitempty"`
	Items     []Item    `json:"items"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// Summary renders the aggregate outcome.
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: %d succeeded, %d failed", r.Action, r.Succeeded, r.Failed)
}

// Request describes a dispatch over a view's in-memory records.
type Request struct {
	Action   Action
	View     string
	Selected []string
	Records  []domain.Order
	// States receives row transitions when set.
	States *StateTable
}

type job struct {
	orderID string
	call    func(ctx context.Context) error
}

// Dispatcher runs batch actions against the remote API.
type Dispatcher struct {
	client       Client
	notifier     notify.Notifier
	journal      journal.Repository
	metrics      *metrics.Collectors
	refresher    Refresher
	refetchDelay time.Duration
	maxInFlight  int
	logger       *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier sends the aggregate summary of each run to n.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithJournal records every run in repo.
func WithJournal(repo journal.Repository) Option {
	return func(d *Dispatcher) {
		d.journal = repo
	}
}

// WithMetrics counts settled items in m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithRefresher schedules r after runs with at least one success.
func WithRefresher(r Refresher, delay time.Duration) Option {
	return func(d *Dispatcher) {
		d.refresher = r
		if delay > 0 {
			d.refetchDelay = delay
		}
	}
}

// WithMaxInFlight caps concurrent requests per run. Zero means unlimited.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		d.maxInFlight = n
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a Dispatcher. Close must be called to stop scheduled refetches.
func NewDispatcher(client Client, opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		client:       client,
		refetchDelay: defaultRefetchDelay,
		logger:       slog.Default(),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close cancels scheduled refetches and waits for them to return.
func (d *Dispatcher) Close() {
	d.cancel()
	d.pending.Wait()
}

// Dispatch runs req.Action for every distinct selected order. Orders are built
// from req.Records; selected ids absent from the records fail without a request.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	if _, err := ParseAction(string(req.Action)); err != nil {
		return nil, err
	}

	ids := orderview.NewSelection(req.Selected...).IDs()
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}

	records := make(map[string]*domain.Order, len(req.Records))
	for i := range req.Records {
		if _, ok := records[req.Records[i].OrderID]; !ok {
			records[req.Records[i].OrderID] = &req.Records[i]
		}
	}

	jobs := make([]job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, d.buildJob(req.Action, id, records[id]))
	}

	return d.run(ctx, req.Action, req.View, jobs, req.States, nil), nil
}

// Confirm submits each payload to the confirm endpoint. Payloads are not
// de-duplicated since line items of one order share its id.
func (d *Dispatcher) Confirm(ctx context.Context, payloads []shopify.OrderPayload, progress ProgressFunc) *Result {
	jobs := make([]job, 0, len(payloads))
	for i := range payloads {
		payload := payloads[i]
		jobs = append(jobs, job{
			orderID: payload.OrderID,
			call: func(ctx context.Context) error {
				return d.client.Submit(ctx, shopify.EndpointConfirm, payload)
			},
		})
	}

	return d.run(ctx, ActionConfirm, "", jobs, nil, progress)
}

func (d *Dispatcher) buildJob(action Action, orderID string, record *domain.Order) job {
	j := job{orderID: orderID}

	switch {
	case action == ActionArchive:
		j.call = func(ctx context.Context) error {
			return d.client.MoveToAllOrders(ctx, orderID)
		}
	case record == nil:
		j.call = func(context.Context) error { return errNotInList }
	case action == ActionShip && len(missingShipData(record)) > 0:
		missing := missingShipData(record)
		j.call = func(context.Context) error {
			return fmt.Errorf("%w: %s", ErrMissingData, strings.Join(missing, ", "))
		}
	default:
		endpoint, status := action.endpoint()
		payload := shopify.PayloadFromOrder(record, status)
		j.call = func(ctx context.Context) error {
			return d.client.Submit(ctx, endpoint, payload)
		}
	}

	return j
}

func (d *Dispatcher) run(
	ctx context.Context,
	action Action,
	view string,
	jobs []job,
	states *StateTable,
	progress ProgressFunc,
) *Result {
	started := time.Now()
	result := &Result{
		ID:     uuid.New(),
		Action: action,
		View:   view,
		Items:  make([]Item, len(jobs)),
	}

	for _, j := range jobs {
		if states != nil {
			states.Apply(j.orderID, Event{Kind: EventBegin})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if d.maxInFlight > 0 {
		g.SetLimit(d.maxInFlight)
	}

	var mu sync.Mutex
	completed := 0

	for idx := range jobs {
		j := jobs[idx]
		g.Go(func() error {
			err := gctx.Err()
			if err == nil {
				err = j.call(gctx)
			}
			d.metrics.ObserveBatchItem(string(action), err)

			if states != nil {
				if err != nil {
					states.Apply(j.orderID, Event{Kind: EventFail, Reason: err.Error()})
				} else {
					states.Apply(j.orderID, Event{Kind: EventSucceed})
				}
			}

			mu.Lock()
			defer mu.Unlock()
			result.Items[idx] = Item{OrderID: j.orderID, Err: err}
			completed++
			if progress != nil {
				progress(Progress{Completed: completed, Total: len(jobs)})
			}

			// Errors stay per item so one failure never cancels its siblings.
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range result.Items {
		if item.Err != nil {
			result.Failed++
			d.logger.WarnContext(ctx, "batch item failed",
				"batch_id", result.ID,
				"action", action,
				"order_id", item.OrderID,
				"error", item.Err,
			)
			continue
		}
		result.Succeeded++
	}

	d.logger.InfoContext(ctx, "batch completed",
		"batch_id", result.ID,
		"action", action,
		"view", view,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	d.notifySummary(ctx, result)
	d.record(ctx, result, started)

	if result.Succeeded > 0 {
		d.scheduleRefetch(view)
	}

	return result
}

func (d *Dispatcher) notifySummary(ctx context.Context, result *Result) {
	if d.notifier == nil {
		return
	}

	level := notify.LevelSuccess
	switch {
	case result.Succeeded == 0:
		level = notify.LevelError
	case result.Failed > 0:
		level = notify.LevelWarning
	}

	if err := d.notifier.Send(ctx, notify.Toast(level, result.View, "%s", result.Summary())); err != nil {
		d.logger.WarnContext(ctx, "failed to send batch notification", "batch_id", result.ID, "error", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, result *Result, started time.Time) {
	if d.journal == nil {
		return
	}

	entry := &journal.Entry{
		ID:         result.ID,
		Kind:       journal.KindBatch,
		Action:     string(result.Action),
		View:       result.View,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Items:      make([]journal.Item, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		ji := journal.Item{OrderID: item.OrderID, Outcome: journal.OutcomeSucceeded}
		if item.Err != nil {
			ji.Outcome = journal.OutcomeFailed
			ji.Reason = item.Err.Error()
		}
		entry.Items = append(entry.Items, ji)
	}

	// recorded even when the caller's context has ended
	if err := d.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.ErrorContext(ctx, "failed to record batch", "batch_id", result.ID, "error", err)
	}
}

func (d *Dispatcher) scheduleRefetch(view string) {
	if d.refresher == nil || d.ctx.Err() != nil {
		return
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()

		timer := time.NewTimer(d.refetchDelay)
		defer timer.Stop()

		select {
		case <-d.ctx.Done():
		case <-timer.C:
			d.refresher(d.ctx, view)
		}
	}()
}
