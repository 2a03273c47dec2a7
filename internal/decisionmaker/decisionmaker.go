package decisionmaker

import "context"

// DecisionRequest asks whether action may be issued from an order view.
type DecisionRequest struct {
	View   string
	Action string
}

type DecisionMaker interface {
	MakeDecision(ctx context.Context, req *DecisionRequest) (bool, error)
}
