package batch

import "sync"

// Phase is the transient state of a row while an action runs against it.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// RowState is the transient state of one order row.
type RowState struct {
	Phase  Phase  `json:"phase"`
	Reason string `json:"reason,omitempty"`
}

// EventKind drives a RowState transition.
type EventKind int

const (
	EventBegin EventKind = iota
	EventSucceed
	EventFail
	EventReset
)

// Event is applied to a RowState by Reduce.
type Event struct {
	Kind   EventKind
	Reason string
}

// Reduce returns the state after applying e to s. Only a pending row can settle;
// a row already pending ignores a second Begin.
func Reduce(s RowState, e Event) RowState {
	switch e.Kind {
	case EventBegin:
		return RowState{Phase: PhasePending}
	case EventSucceed:
		if s.Phase == PhasePending {
			return RowState{Phase: PhaseSucceeded}
		}
	case EventFail:
		if s.Phase == PhasePending {
			return RowState{Phase: PhaseFailed, Reason: e.Reason}
		}
	case EventReset:
		return RowState{Phase: PhaseIdle}
	}
	return s
}

// StateTable holds row states of one view, keyed by order id.
// Rows without an entry are idle.
type StateTable struct {
	mu   sync.RWMutex
	rows map[string]RowState
}

// NewStateTable creates an empty StateTable.
func NewStateTable() *StateTable {
	return &StateTable{rows: make(map[string]RowState)}
}

// Apply reduces e into the state of orderID and returns the new state.
func (t *StateTable) Apply(orderID string, e Event) RowState {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := Reduce(t.rows[orderID], e)
	if next.Phase == PhaseIdle {
		delete(t.rows, orderID)
	} else {
		t.rows[orderID] = next
	}
	return next
}

// Get returns the state of orderID.
func (t *StateTable) Get(orderID string) RowState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.rows[orderID]; ok {
		return s
	}
	return RowState{Phase: PhaseIdle}
}

// Snapshot returns a copy of every non-idle row.
func (t *StateTable) Snapshot() map[string]RowState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]RowState, len(t.rows))
	for id, s := range t.rows {
		out[id] = s
	}
	return out
}

// Clear drops every row state, as happens when the view is refetched.
// Rows still pending keep their state so an in-flight run can settle them.
func (t *StateTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, s := range t.rows {
		if s.Phase != PhasePending {
			delete(t.rows, id)
		}
	}
}
