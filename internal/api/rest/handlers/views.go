package handlers

import (
	"context"
	"log/slog"

	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/orderview"
)

// Views keeps the row states of running actions for each order view.
type Views struct {
	states map[orderview.View]*batch.StateTable
}

// NewViews creates the state of every view.
func NewViews() *Views {
	v := &Views{
		states: make(map[orderview.View]*batch.StateTable, len(orderview.Views)),
	}
	for _, view := range orderview.Views {
		v.states[view] = batch.NewStateTable()
	}
	return v
}

// States returns the row states of view.
func (v *Views) States(view orderview.View) *batch.StateTable {
	return v.states[view]
}

// Refresher clears the settled row states of a view and tells open clients
// to refetch it.
func (v *Views) Refresher(n notify.Notifier, logger *slog.Logger) batch.Refresher {
	return func(ctx context.Context, name string) {
		view, err := orderview.ParseView(name)
		if err != nil {
			return
		}

		v.States(view).Clear()
		if err := n.Send(ctx, notify.Refresh(name)); err != nil {
			logger.WarnContext(ctx, "failed to send refresh hint", "view", name, "error", err)
		}
	}
}
