package opa

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/CameronXie/order-desk/internal/decisionmaker"
	"github.com/CameronXie/order-desk/internal/policyretriever"
)

const (
	moduleName = "decisionmaker"

	// DefaultQuery evaluates DefaultPolicy.
	DefaultQuery = "data.orderdesk.allow"
)

// DefaultPolicy lists the actions each order view offers.
const DefaultPolicy = `
package orderdesk

actions := {
	"pending": {"confirm", "cancel", "edit"},
	"confirmed": {"ship"},
	"cancelled": {"archive"},
}

default allow := false

allow if input.action in actions[input.view]
`

type decisionMaker struct {
	policyRetriever policyretriever.PolicyRetriever
	query           string
}

// MakeDecision evaluates the retrieved policy against the request and returns
// whether the action is allowed.
func (d *decisionMaker) MakeDecision(ctx context.Context, req *decisionmaker.DecisionRequest) (bool, error) {
	policy, err := d.policyRetriever.GetPolicy()
	if err != nil {
		return false, fmt.Errorf("failed to get policy: %w", err)
	}

	query, err := rego.New(rego.Module(moduleName, policy), rego.Query(d.query)).PrepareForEval(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to prepare query: %w", err)
	}

	result, err := query.Eval(ctx, rego.EvalInput(map[string]any{
		"view":   req.View,
		"action": req.Action,
	}))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate query: %w", err)
	}
	if len(result) == 0 || len(result[0].Expressions) == 0 {
		return false, errors.New("failed to evaluate query: no result")
	}

	allowed, ok := result[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("failed to evaluate query: expected a boolean, got %T", result[0].Expressions[0].Value)
	}
	return allowed, nil
}

// NewDecisionMaker initializes a DecisionMaker with the provided PolicyRetriever and Rego query.
func NewDecisionMaker(policyRetriever policyretriever.PolicyRetriever, query string) decisionmaker.DecisionMaker {
	return &decisionMaker{
		policyRetriever: policyRetriever,
		query:           query,
	}
}
