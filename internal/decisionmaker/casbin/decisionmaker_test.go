package casbin

import (
	"context"
	"os"
	"testing"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/order-desk/internal/decisionmaker"
)

const (
	policyPath = "testdata/policy.csv"
)

// mockEnforcer is a mock implementation of the casbin.IEnforcer interface used for testing purposes.
type mockEnforcer struct {
	casbin.IEnforcer
	mock.Mock
}

func (e *mockEnforcer) LoadPolicy() error {
	args := e.Called()
	return args.Error(0)
}

func (e *mockEnforcer) Enforce(rvals ...any) (bool, error) {
	args := e.Called(rvals...)
	return args.Bool(0), args.Error(1)
}

func TestDecisionMaker_MakeDecision(t *testing.T) {
	request := &decisionmaker.DecisionRequest{
		View:   "pending",
		Action: "confirm",
	}

	enforcer := new(mockEnforcer)
	enforcer.On("LoadPolicy").Return(nil)
	enforcer.On("Enforce", request.View, request.Action).Return(true, nil)

	decisionMaker := decisionMaker{enforcer: enforcer}
	decision, err := decisionMaker.MakeDecision(context.TODO(), request)

	assert.True(t, decision)
	assert.NoError(t, err)
	enforcer.AssertCalled(t, "Enforce", request.View, request.Action)
	enforcer.AssertNumberOfCalls(t, "LoadPolicy", 1)
	enforcer.AssertNumberOfCalls(t, "Enforce", 1)
}

func TestNewDecisionMaker(t *testing.T) {
	d, err := NewDecisionMaker(Model, fileadapter.NewAdapter(policyPath))
	require.NoError(t, err)
	assert.NotNil(t, d)

	cases := map[string]struct {
		request        *decisionmaker.DecisionRequest
		expectDecision bool
	}{
		"should allow confirming pending orders": {
			request:        &decisionmaker.DecisionRequest{View: "pending", Action: "confirm"},
			expectDecision: true,
		},
		"should deny shipping pending orders": {
			request:        &decisionmaker.DecisionRequest{View: "pending", Action: "ship"},
			expectDecision: false,
		},
		"should deny actions missing from the file": {
			request:        &decisionmaker.DecisionRequest{View: "cancelled", Action: "archive"},
			expectDecision: false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			decision, err := d.MakeDecision(context.TODO(), tc.request)
			assert.Equal(t, tc.expectDecision, decision)
			assert.NoError(t, err)
		})
	}
}

func TestNewStringAdapter(t *testing.T) {
	d, err := NewDecisionMaker(Model, NewStringAdapter(DefaultPolicies))
	require.NoError(t, err)

	cases := map[string]struct {
		view     string
		action   string
		expected bool
	}{
		"should allow confirm from pending":   {view: "pending", action: "confirm", expected: true},
		"should allow cancel from pending":    {view: "pending", action: "cancel", expected: true},
		"should allow edit from pending":      {view: "pending", action: "edit", expected: true},
		"should allow ship from confirmed":    {view: "confirmed", action: "ship", expected: true},
		"should allow archive from cancelled": {view: "cancelled", action: "archive", expected: true},
		"should deny confirm from confirmed":  {view: "confirmed", action: "confirm", expected: false},
		"should deny everything from all":     {view: "all", action: "ship", expected: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			decision, err := d.MakeDecision(context.TODO(), &decisionmaker.DecisionRequest{View: tc.view, Action: tc.action})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, decision)
		})
	}
}

func TestNewMySQLAdapter(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	a, err := NewMySQLAdapter(dsn, DefaultPolicies)
	require.NoError(t, err)

	// seeding twice must not duplicate or fail
	_, err = NewMySQLAdapter(dsn, DefaultPolicies)
	require.NoError(t, err)

	d, err := NewDecisionMaker(Model, a)
	require.NoError(t, err)

	decision, err := d.MakeDecision(context.TODO(), &decisionmaker.DecisionRequest{View: "confirmed", Action: "ship"})
	require.NoError(t, err)
	assert.True(t, decision)
}
