package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrules/pkg/actions"
	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/expr"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

func createNodeAction(variable string, labels ...string) actions.Action {
	tmpl := &graphcore.ActionTemplate{Kind: graphcore.ActionCreateNode, Variable: variable, Labels: labels}
	a, err := actions.Build(tmpl, expr.New(), actions.NewCounterIDGenerator())
	if err != nil {
		panic(err)
	}
	return a
}

// failingAction always fails validation and execution, to exercise the
// executor's failure-policy branches without depending on a real action's
// internal error conditions.
type failingAction struct{}

func (failingAction) Validate(*graphstore.Graph, *binding.Context) actions.ValidationReport {
	return actions.ValidationReport{Valid: false, Reason: "always fails"}
}
func (failingAction) Execute(*graphstore.Graph, *binding.Context) actions.ExecuteResult {
	return actions.ExecuteResult{Success: false, Error: errors.New("boom")}
}
func (failingAction) Describe() string { return "failingAction" }

func TestExecuteActionsAllSucceed(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), createNodeAction("q", "Person")}

	result := ExecuteActions(g, list, ctx, Options{})
	require.True(t, result.Success)
	assert.Len(t, result.ActionResults, 2)
	assert.Len(t, g.GetAllNodes(), 2)
}

func TestExecuteActionsValidateBeforeExecuteStopsWithNoSideEffects(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), failingAction{}}

	result := ExecuteActions(g, list, ctx, Options{ValidateBeforeExecute: true})
	require.False(t, result.Success)
	require.Error(t, result.Error)
	assert.Empty(t, g.GetAllNodes(), "no action should have executed")
}

func TestExecuteActionsStopsOnFirstFailureByDefault(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), failingAction{}, createNodeAction("q", "Person")}

	result := ExecuteActions(g, list, ctx, Options{})
	require.False(t, result.Success)
	assert.Len(t, result.ActionResults, 2, "third action never runs")
	assert.Len(t, g.GetAllNodes(), 1)
}

func TestExecuteActionsContinueOnFailureRunsRemaining(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), failingAction{}, createNodeAction("q", "Person")}

	result := ExecuteActions(g, list, ctx, Options{ContinueOnFailure: true})
	require.False(t, result.Success)
	assert.Len(t, result.ActionResults, 3)
	assert.Len(t, g.GetAllNodes(), 2)
}

func TestExecuteActionsRollbackOnFailureRestoresState(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), failingAction{}}

	result := ExecuteActions(g, list, ctx, Options{RollbackOnFailure: true})
	require.False(t, result.Success)
	assert.Empty(t, g.GetAllNodes(), "rollback must restore pre-call state")
}

func TestExecuteActionsRollbackWinsOverContinueOnFailure(t *testing.T) {
	g := graphstore.New()
	ctx := binding.New()
	list := []actions.Action{createNodeAction("p", "Person"), failingAction{}, createNodeAction("q", "Person")}

	result := ExecuteActions(g, list, ctx, Options{RollbackOnFailure: true, ContinueOnFailure: true})
	require.False(t, result.Success)
	assert.Len(t, result.ActionResults, 2, "execution stops at first failure even with continueOnFailure set")
	assert.Empty(t, g.GetAllNodes())
}
