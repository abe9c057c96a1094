// Package executor drives a list of actions against a graph under a chosen
// failure policy, tracking an undo log for rollback.
package executor

import (
	"fmt"

	"github.com/orneryd/graphrules/pkg/actions"
	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/graphstore"
	"github.com/orneryd/graphrules/pkg/rlog"
)

// Options controls failure handling for one ExecuteActions call.
type Options struct {
	// ValidateBeforeExecute runs every action's Validate up front; any
	// failure aborts with no side effects.
	ValidateBeforeExecute bool
	// ContinueOnFailure keeps running subsequent actions after one fails.
	ContinueOnFailure bool
	// RollbackOnFailure inverts the undo log of previously successful
	// actions, in reverse order, when an action fails.
	RollbackOnFailure bool
}

// ActionResult records the outcome of one action within a run.
type ActionResult struct {
	Success bool
	Error   error
	Action  actions.Action
}

// Result is the outcome of one ExecuteActions call.
type Result struct {
	Success       bool
	Error         error
	ActionResults []ActionResult
}

// ExecuteActions runs list against graph under bindings, honoring opts.
// When both RollbackOnFailure and ContinueOnFailure are set, rollback wins:
// execution stops at the first failure and rolls back.
func ExecuteActions(graph *graphstore.Graph, list []actions.Action, bindings *binding.Context, opts Options) Result {
	if opts.ValidateBeforeExecute {
		for _, a := range list {
			report := a.Validate(graph, bindings)
			if !report.Valid {
				return Result{
					Success: false,
					Error:   fmt.Errorf("Validation failed: %s: %s", a.Describe(), report.Reason),
				}
			}
		}
	}

	var undoLog []actions.UndoRecord
	var results []ActionResult
	overallSuccess := true

	for _, a := range list {
		res := a.Execute(graph, bindings)
		results = append(results, ActionResult{Success: res.Success, Error: res.Error, Action: a})

		if res.Success {
			if res.Undo != nil {
				undoLog = append(undoLog, res.Undo)
			}
			continue
		}

		overallSuccess = false

		if opts.RollbackOnFailure {
			rlog.Warnf("action %q failed (%v), rolling back %d prior action(s)", a.Describe(), res.Error, len(undoLog))
			rollback(graph, undoLog)
			return Result{Success: false, Error: res.Error, ActionResults: results}
		}

		if !opts.ContinueOnFailure {
			return Result{Success: false, Error: res.Error, ActionResults: results}
		}
	}

	return Result{Success: overallSuccess, ActionResults: results}
}

// rollback inverts undoLog in reverse order. Inner failures (e.g. a
// rollback step that itself errors because a later actor removed the
// created node) are logged but do not themselves trigger further rollback —
// there is no further rollback action to trigger; we simply keep unwinding
// the rest of the log.
func rollback(graph *graphstore.Graph, undoLog []actions.UndoRecord) {
	for i := len(undoLog) - 1; i >= 0; i-- {
		if err := undoLog[i].Apply(graph); err != nil {
			rlog.Warnf("rollback step %d/%d failed, continuing: %v", i+1, len(undoLog), err)
		}
	}
}
