package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/journal"
	"github.com/CameronXie/order-desk/internal/journal/memory"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/shopify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Submit(ctx context.Context, endpoint shopify.Endpoint, payload shopify.OrderPayload) error {
	return m.Called(ctx, endpoint, payload).Error(0)
}

func (m *mockClient) MoveToAllOrders(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func order(id string) domain.Order {
	return domain.Order{
		ID:            "rec-" + id,
		OrderID:       id,
		StyleNumber:   1042,
		Size:          "M",
		Quantity:      1,
		OrderDate:     "05-01-2024",
		ContactNumber: "555",
	}
}

func payloadFor(id, status string) shopify.OrderPayload {
	o := order(id)
	return shopify.PayloadFromOrder(&o, status)
}

func TestDispatcher_Dispatch(t *testing.T) {
	incomplete := order("#9")
	incomplete.ContactNumber = ""

	testCases := map[string]struct {
		request       *Request
		setupMock     func(m *mockClient)
		expectedItems []Item
		expectedError error
	}{
		"should send one request per distinct order": {
			request: &Request{
				Action:   ActionConfirm,
				View:     "pending",
				Selected: []string{"#1", "#1", "#2", "#1"},
				Records:  []domain.Order{order("#1"), order("#2")},
			},
			setupMock: func(m *mockClient) {
				m.On("Submit", mock.Anything, shopify.EndpointConfirm, payloadFor("#1", domain.StatusConfirm)).Return(nil).Once()
				m.On("Submit", mock.Anything, shopify.EndpointConfirm, payloadFor("#2", domain.StatusConfirm)).Return(nil).Once()
			},
			expectedItems: []Item{{OrderID: "#1"}, {OrderID: "#2"}},
		},
		"should reconcile each order separately": {
			request: &Request{
				Action:   ActionCancel,
				View:     "pending",
				Selected: []string{"#1", "#2"},
				Records:  []domain.Order{order("#1"), order("#2")},
			},
			setupMock: func(m *mockClient) {
				m.On("Submit", mock.Anything, shopify.EndpointCancel, payloadFor("#1", domain.StatusCancel)).Return(nil)
				m.On("Submit", mock.Anything, shopify.EndpointCancel, payloadFor("#2", domain.StatusCancel)).
					Return(&shopify.APIError{Endpoint: "/add-to-cancel", StatusCode: 200, Message: "locked"})
			},
			expectedItems: []Item{
				{OrderID: "#1"},
				{OrderID: "#2", Err: &shopify.APIError{Endpoint: "/add-to-cancel", StatusCode: 200, Message: "locked"}},
			},
		},
		"should fail ship locally when data is missing": {
			request: &Request{
				Action:   ActionShip,
				View:     "confirmed",
				Selected: []string{"#9"},
				Records:  []domain.Order{incomplete},
			},
			setupMock: func(*mockClient) {},
			expectedItems: []Item{
				{OrderID: "#9", Err: ErrMissingData},
			},
		},
		"should fail orders absent from the list": {
			request: &Request{
				Action:   ActionConfirm,
				Selected: []string{"#404"},
			},
			setupMock: func(*mockClient) {},
			expectedItems: []Item{
				{OrderID: "#404", Err: errNotInList},
			},
		},
		"should archive by order id": {
			request: &Request{
				Action:   ActionArchive,
				View:     "cancelled",
				Selected: []string{"#5"},
			},
			setupMock: func(m *mockClient) {
				m.On("MoveToAllOrders", mock.Anything, "#5").Return(nil).Once()
			},
			expectedItems: []Item{{OrderID: "#5"}},
		},
		"should reject empty selection": {
			request:       &Request{Action: ActionConfirm, Selected: []string{"", ""}},
			setupMock:     func(*mockClient) {},
			expectedError: ErrEmptySelection,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			client := new(mockClient)
			tc.setupMock(client)

			d := NewDispatcher(client)
			defer d.Close()

			result, err := d.Dispatch(context.Background(), tc.request)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)

			require.Len(t, result.Items, len(tc.expectedItems))
			for i, expected := range tc.expectedItems {
				assert.Equal(t, expected.OrderID, result.Items[i].OrderID)
				if expected.Err == nil {
					assert.NoError(t, result.Items[i].Err)
					continue
				}
				var apiErr *shopify.APIError
				if errors.As(expected.Err, &apiErr) {
					assert.Equal(t, expected.Err, result.Items[i].Err)
					continue
				}
				assert.ErrorIs(t, result.Items[i].Err, expected.Err)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestDispatcher_Dispatch_UnsupportedAction(t *testing.T) {
	d := NewDispatcher(new(mockClient))
	defer d.Close()

	_, err := d.Dispatch(context.Background(), &Request{Action: "refund", Selected: []string{"#1"}})

	var unsupported *UnsupportedActionError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "refund", unsupported.Action)
}

func TestDispatcher_Dispatch_SideEffects(t *testing.T) {
	client := new(mockClient)
	client.On("Submit", mock.Anything, shopify.EndpointShip, payloadFor("#1", domain.StatusShipped)).Return(nil)
	client.On("Submit", mock.Anything, shopify.EndpointShip, payloadFor("#2", domain.StatusShipped)).
		Return(errors.New("connection reset"))

	recorder := notify.NewRecorder()
	repo := memory.NewRepository()
	refreshed := make(chan string, 1)

	d := NewDispatcher(client,
		WithNotifier(recorder),
		WithJournal(repo),
		WithRefresher(func(_ context.Context, view string) { refreshed <- view }, 10*time.Millisecond),
	)
	defer d.Close()

	states := NewStateTable()
	result, err := d.Dispatch(context.Background(), &Request{
		Action:   ActionShip,
		View:     "confirmed",
		Selected: []string{"#1", "#2"},
		Records:  []domain.Order{order("#1"), order("#2")},
		States:   states,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, RowState{Phase: PhaseSucceeded}, states.Get("#1"))
	assert.Equal(t, RowState{Phase: PhaseFailed, Reason: "connection reset"}, states.Get("#2"))

	toasts := recorder.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelWarning, toasts[0].Level)
	assert.Equal(t, "ship: 1 succeeded, 1 failed", toasts[0].Message)

	entry, err := repo.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.KindBatch, entry.Kind)
	assert.Equal(t, []journal.Item{
		{OrderID: "#1", Outcome: journal.OutcomeSucceeded},
		{OrderID: "#2", Outcome: journal.OutcomeFailed, Reason: "connection reset"},
	}, entry.Items)

	select {
	case view := <-refreshed:
		assert.Equal(t, "confirmed", view)
	case <-time.After(time.Second):
		t.Fatal("refetch was not scheduled")
	}
}

func TestDispatcher_NoRefetchWithoutSuccess(t *testing.T) {
	client := new(mockClient)
	client.On("MoveToAllOrders", mock.Anything, "#1").Return(errors.New("boom"))

	var calls atomic.Int32
	d := NewDispatcher(client, WithRefresher(func(context.Context, string) { calls.Add(1) }, time.Millisecond))

	result, err := d.Dispatch(context.Background(), &Request{Action: ActionArchive, Selected: []string{"#1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)

	time.Sleep(20 * time.Millisecond)
	d.Close()
	assert.Zero(t, calls.Load())
}

func TestDispatcher_CloseCancelsScheduledRefetch(t *testing.T) {
	client := new(mockClient)
	client.On("MoveToAllOrders", mock.Anything, "#1").Return(nil)

	var calls atomic.Int32
	d := NewDispatcher(client, WithRefresher(func(context.Context, string) { calls.Add(1) }, time.Hour))

	_, err := d.Dispatch(context.Background(), &Request{Action: ActionArchive, Selected: []string{"#1"}})
	require.NoError(t, err)

	d.Close()
	assert.Zero(t, calls.Load())
}

func TestDispatcher_CancelledContext(t *testing.T) {
	client := new(mockClient)
	d := NewDispatcher(client)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	states := NewStateTable()
	result, err := d.Dispatch(ctx, &Request{
		Action:   ActionConfirm,
		Selected: []string{"#1", "#2"},
		Records:  []domain.Order{order("#1"), order("#2")},
		States:   states,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Failed)
	for _, item := range result.Items {
		assert.ErrorIs(t, item.Err, context.Canceled)
	}
	assert.Equal(t, PhaseFailed, states.Get("#1").Phase)
	client.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Confirm(t *testing.T) {
	client := new(mockClient)
	client.On("Submit", mock.Anything, shopify.EndpointConfirm, mock.Anything).Return(nil)

	d := NewDispatcher(client)
	defer d.Close()

	// two line items of the same order are two requests
	payloads := []shopify.OrderPayload{
		payloadFor("#1", "COD Confirmed"),
		payloadFor("#1", "COD Confirmed"),
		payloadFor("#2", "paid"),
	}

	var (
		mu   sync.Mutex
		seen []Progress
	)
	result := d.Confirm(context.Background(), payloads, func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p)
	})

	assert.Equal(t, 3, result.Succeeded)
	client.AssertNumberOfCalls(t, "Submit", 3)

	require.Len(t, seen, 3)
	for i, p := range seen {
		assert.Equal(t, Progress{Completed: i + 1, Total: 3}, p)
	}
	assert.Equal(t, 100, seen[2].Percentage())
}

type blockingClient struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *blockingClient) Submit(context.Context, shopify.Endpoint, shopify.OrderPayload) error {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (c *blockingClient) MoveToAllOrders(context.Context, string) error {
	return nil
}

func TestDispatcher_MaxInFlight(t *testing.T) {
	client := &blockingClient{}
	d := NewDispatcher(client, WithMaxInFlight(2))
	defer d.Close()

	payloads := make([]shopify.OrderPayload, 8)
	for i := range payloads {
		payloads[i] = payloadFor("#1", "paid")
	}

	result := d.Confirm(context.Background(), payloads, nil)

	assert.Equal(t, 8, result.Succeeded)
	assert.LessOrEqual(t, client.peak.Load(), int32(2))
}

func TestProgress_Percentage(t *testing.T) {
	testCases := map[string]struct {
		progress Progress
		expected int
	}{
		"should be zero without work":  {progress: Progress{}, expected: 0},
		"should round to nearest":      {progress: Progress{Completed: 1, Total: 3}, expected: 33},
		"should round half up":         {progress: Progress{Completed: 1, Total: 8}, expected: 13},
		"should be complete when done": {progress: Progress{Completed: 4, Total: 4}, expected: 100},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.progress.Percentage())
		})
	}
}

func TestItem_MarshalJSON(t *testing.T) {
	ok, err := Item{OrderID: "#1"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"#1","ok":true}`, string(ok))

	failed, err := Item{OrderID: "#2", Err: errors.New("locked")}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"#2","ok":false,"error":"locked"}`, string(failed))
}
