// Package graphcore defines the shared data model for the graph rule engine:
// nodes, edges, paths, pattern types, and the structured error values every
// other package communicates failures with.
package graphcore

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for these; callers should never
// string-match an error message.
var (
	ErrDuplicateNode   = errors.New("duplicate node")
	ErrUnknownNode     = errors.New("unknown node")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrTypeMismatch    = errors.New("type error")
	ErrNumeric         = errors.New("numeric error")
)

// UnboundVariableError reports a reference to a name absent from a binding
// context, e.g. property access on a variable no pattern bound.
type UnboundVariableError struct {
	Variable string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("variable %q not found in bindings", e.Variable)
}

func (e *UnboundVariableError) Unwrap() error { return ErrUnboundVariable }

// TypeError reports an operator applied to operands it cannot accept, e.g.
// property access on a scalar or comparison between incompatible kinds.
type TypeError struct {
	Op     string
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error in %s: %s", e.Op, e.Reason)
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

// NumericError reports division by zero or another arithmetic failure.
type NumericError struct {
	Op     string
	Reason string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric error in %s: %s", e.Op, e.Reason)
}

func (e *NumericError) Unwrap() error { return ErrNumeric }

// ValidationFailedError carries the reason an action's pre-execution
// validation rejected it.
type ValidationFailedError struct {
	Action string
	Reason string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Action, e.Reason)
}

// ExecutionFailedError wraps the underlying cause of a failed action
// execution together with the action's description.
type ExecutionFailedError struct {
	Action string
	Cause  error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution failed for %s: %v", e.Action, e.Cause)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Cause }
