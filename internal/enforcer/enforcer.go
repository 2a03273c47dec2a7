package enforcer

import (
	"context"
	"fmt"
	"strings"

	"github.com/CameronXie/order-desk/internal/decisionmaker"
)

type Enforcer interface {
	Enforce(ctx context.Context, req *AccessRequest) (bool, error)
}

// AccessRequest asks whether Action may be issued from View.
type AccessRequest struct {
	View   string
	Action string
}

// ActionNotAllowedError is returned by Authorize when the policy denies a request.
type ActionNotAllowedError struct {
	View   string
	Action string
}

func (e *ActionNotAllowedError) Error() string {
	return fmt.Sprintf("action %s is not allowed on the %s view", e.Action, e.View)
}

type enforcer struct {
	decisionMaker decisionmaker.DecisionMaker
}

func (e *enforcer) Enforce(ctx context.Context, req *AccessRequest) (bool, error) {
	return e.decisionMaker.MakeDecision(
		ctx,
		&decisionmaker.DecisionRequest{
			View:   strings.ToLower(req.View),
			Action: strings.ToLower(req.Action),
		},
	)
}

func NewEnforcer(decisionMaker decisionmaker.DecisionMaker) Enforcer {
	return &enforcer{decisionMaker: decisionMaker}
}

// Authorize returns an *ActionNotAllowedError when e denies action on view.
func Authorize(ctx context.Context, e Enforcer, view, action string) error {
	allowed, err := e.Enforce(ctx, &AccessRequest{View: view, Action: action})
	if err != nil {
		return fmt.Errorf("failed to evaluate action policy: %w", err)
	}
	if !allowed {
		return &ActionNotAllowedError{View: view, Action: action}
	}
	return nil
}
