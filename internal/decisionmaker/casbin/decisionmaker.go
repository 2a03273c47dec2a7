package casbin

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	_ "github.com/go-sql-driver/mysql"

	"github.com/CameronXie/order-desk/internal/decisionmaker"
)

// Model matches a request's view and action against the policy lines.
const Model = `
[request_definition]
r = view, act

[policy_definition]
p = view, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.view == p.view && r.act == p.act
`

// DefaultPolicies lists the actions each order view offers.
var DefaultPolicies = [][]string{
	{"pending", "confirm"},
	{"pending", "cancel"},
	{"pending", "edit"},
	{"confirmed", "ship"},
	{"cancelled", "archive"},
}

type decisionMaker struct {
	enforcer casbin.IEnforcer
}

// MakeDecision reloads the policy so edits made in storage apply without a
// restart, then enforces the request.
func (d *decisionMaker) MakeDecision(_ context.Context, req *decisionmaker.DecisionRequest) (bool, error) {
	err := d.enforcer.LoadPolicy()
	if err != nil {
		return false, err
	}

	return d.enforcer.Enforce(req.View, req.Action)
}

// NewDecisionMaker creates a DecisionMaker from a Casbin model and a policy adapter.
func NewDecisionMaker(config string, policyRepo persist.Adapter) (decisionmaker.DecisionMaker, error) {
	m, err := model.NewModelFromString(config)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m, policyRepo)
	if err != nil {
		return nil, err
	}

	return &decisionMaker{enforcer: enforcer}, nil
}

// NewStringAdapter serves policies from memory.
func NewStringAdapter(policies [][]string) persist.Adapter {
	lines := make([]string, 0, len(policies))
	for _, p := range policies {
		lines = append(lines, "p, "+strings.Join(p, ", "))
	}
	return stringadapter.NewAdapter(strings.Join(lines, "\n"))
}

// NewMySQLAdapter stores policies in MySQL and seeds any of policies missing
// from the table.
func NewMySQLAdapter(dsn string, policies [][]string) (persist.Adapter, error) {
	a, err := gormadapter.NewAdapter("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy storage: %w", err)
	}

	m, err := model.NewModelFromString(Model)
	if err != nil {
		return nil, err
	}
	seeder, err := casbin.NewEnforcer(m, a)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored policies: %w", err)
	}
	for _, p := range policies {
		// AddPolicy skips rules that are already stored.
		if _, err := seeder.AddPolicy(p[0], p[1]); err != nil {
			return nil, fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}

	return a, nil
}
