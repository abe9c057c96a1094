// Package actions implements the graph-mutating verbs a rule body can
// invoke: CreateNode, CreateRelationship, SetProperty, and the supplemental
// DeleteEntity/RemoveLabel. Every action presents the same three-method
// surface so pkg/executor can drive them uniformly.
package actions

import (
	"fmt"

	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/expr"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

// ValidationReport is the result of an action's pre-execution check.
type ValidationReport struct {
	Valid  bool
	Reason string
}

func ok() ValidationReport { return ValidationReport{Valid: true} }

func fail(reason string) ValidationReport {
	return ValidationReport{Valid: false, Reason: reason}
}

// ExecuteResult is the result of running an action once.
type ExecuteResult struct {
	Success bool
	Error   error
	Undo    UndoRecord
}

// UndoRecord reverses the effect of one successful action execution. It is
// produced by every successful action but retained by the executor only
// when RollbackOnFailure is enabled.
type UndoRecord interface {
	Apply(graph *graphstore.Graph) error
}

// Action is the common surface every action kind implements.
type Action interface {
	Validate(graph *graphstore.Graph, bindings *binding.Context) ValidationReport
	Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult
	Describe() string
}

// Build turns a parsed ActionTemplate into a concrete Action bound to an
// evaluator and id generator, the step pkg/ruleengine performs once per
// surviving binding tuple.
func Build(tmpl *graphcore.ActionTemplate, ev *expr.Evaluator, idGen IDGenerator) (Action, error) {
	switch tmpl.Kind {
	case graphcore.ActionCreateNode:
		return &CreateNode{Variable: tmpl.Variable, Labels: tmpl.Labels, Properties: tmpl.Properties, eval: ev, idGen: idGen}, nil
	case graphcore.ActionCreateRelationship:
		return &CreateRelationship{Variable: tmpl.Variable, FromVar: tmpl.FromVar, ToVar: tmpl.ToVar, RelType: tmpl.RelType, Properties: tmpl.Properties, eval: ev}, nil
	case graphcore.ActionSetProperty:
		return &SetProperty{Target: tmpl.Target, Key: tmpl.Key, Value: tmpl.Value, eval: ev}, nil
	case graphcore.ActionDeleteEntity:
		return &DeleteEntity{Targets: tmpl.Targets, Detach: tmpl.Detach}, nil
	case graphcore.ActionRemoveLabel:
		return &RemoveLabel{Target: tmpl.Target, Label: tmpl.Key}, nil
	}
	return nil, fmt.Errorf("unknown action kind %v", tmpl.Kind)
}

// --- CreateNode ---

// CreateNode allocates a fresh node with the template's labels and
// evaluated properties, binding it to Variable.
type CreateNode struct {
	Variable   string
	Labels     []string
	Properties map[string]*graphcore.Expression

	eval  *expr.Evaluator
	idGen IDGenerator
}

func (a *CreateNode) Validate(_ *graphstore.Graph, bindings *binding.Context) ValidationReport {
	if len(a.Labels) == 0 {
		return fail("CreateNode requires at least one label")
	}
	for _, l := range a.Labels {
		if l == "" {
			return fail("CreateNode labels must be non-empty strings")
		}
	}
	if a.Variable != "" && bindings.Has(a.Variable) {
		return fail(fmt.Sprintf("variable %q is already bound", a.Variable))
	}
	return ok()
}

func (a *CreateNode) Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult {
	if len(a.Labels) == 0 {
		return ExecuteResult{Success: false, Error: &graphcore.ValidationFailedError{
			Action: a.Describe(), Reason: "CreateNode requires at least one label",
		}}
	}
	if a.Variable != "" && bindings.Has(a.Variable) {
		return ExecuteResult{Success: false, Error: &graphcore.ValidationFailedError{
			Action: a.Describe(), Reason: fmt.Sprintf("variable %q is already bound", a.Variable),
		}}
	}
	props := make(map[string]any, len(a.Properties))
	for k, valExpr := range a.Properties {
		v, err := a.eval.Eval(valExpr, bindings)
		if err != nil {
			return ExecuteResult{Success: false, Error: err}
		}
		props[k] = v
	}
	if len(a.Labels) > 1 {
		extra := make([]any, 0, len(a.Labels)-1)
		for _, l := range a.Labels[1:] {
			extra = append(extra, l)
		}
		props["labels"] = extra
	}

	id := a.idGen.NextID()
	node, err := graph.AddNode(id, a.Labels[0], props)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	if a.Variable != "" {
		bindings.Set(a.Variable, node)
	}
	return ExecuteResult{Success: true, Undo: removeNodeUndo{id: node.ID}}
}

func (a *CreateNode) Describe() string {
	return fmt.Sprintf("CreateNode(%s:%v)", a.Variable, a.Labels)
}

type removeNodeUndo struct{ id graphcore.NodeID }

func (u removeNodeUndo) Apply(graph *graphstore.Graph) error {
	graph.RemoveNode(u.id)
	return nil
}

// --- CreateRelationship ---

// CreateRelationship adds an edge between two already-bound nodes.
type CreateRelationship struct {
	Variable   string
	FromVar    string
	ToVar      string
	RelType    string
	Properties map[string]*graphcore.Expression

	eval *expr.Evaluator
}

func (a *CreateRelationship) Validate(_ *graphstore.Graph, bindings *binding.Context) ValidationReport {
	if a.RelType == "" {
		return fail("CreateRelationship requires a non-empty type")
	}
	from, ok1 := bindings.Get(a.FromVar)
	if !ok1 {
		return fail(fmt.Sprintf("variable %q is not bound", a.FromVar))
	}
	if _, isNode := from.(*graphcore.Node); !isNode {
		return fail(fmt.Sprintf("variable %q is not bound to a node", a.FromVar))
	}
	to, ok2 := bindings.Get(a.ToVar)
	if !ok2 {
		return fail(fmt.Sprintf("variable %q is not bound", a.ToVar))
	}
	if _, isNode := to.(*graphcore.Node); !isNode {
		return fail(fmt.Sprintf("variable %q is not bound to a node", a.ToVar))
	}
	return ok()
}

func (a *CreateRelationship) Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult {
	fromVal, err := bindings.MustGet(a.FromVar)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	toVal, err := bindings.MustGet(a.ToVar)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	from := fromVal.(*graphcore.Node)
	to := toVal.(*graphcore.Node)

	props := make(map[string]any, len(a.Properties))
	for k, valExpr := range a.Properties {
		v, err := a.eval.Eval(valExpr, bindings)
		if err != nil {
			return ExecuteResult{Success: false, Error: err}
		}
		props[k] = v
	}

	prior := graph.GetEdge(from.ID, to.ID, a.RelType)
	edge, err := graph.AddEdge(from.ID, to.ID, a.RelType, props)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	if a.Variable != "" {
		bindings.Set(a.Variable, edge)
	}
	return ExecuteResult{Success: true, Undo: createRelationshipUndo{src: from.ID, tgt: to.ID, label: a.RelType, prior: prior}}
}

func (a *CreateRelationship) Describe() string {
	return fmt.Sprintf("CreateRelationship(%s-[%s:%s]->%s)", a.FromVar, a.Variable, a.RelType, a.ToVar)
}

// createRelationshipUndo reverses a CreateRelationship: remove the edge if
// it did not exist before, or restore its prior properties if it replaced
// one. CreateRelationship on an existing triple replaces rather than errors,
// so undo must restore the prior state rather than assume absence.
type createRelationshipUndo struct {
	src, tgt graphcore.NodeID
	label    string
	prior    *graphcore.Edge
}

func (u createRelationshipUndo) Apply(graph *graphstore.Graph) error {
	if u.prior == nil {
		graph.RemoveEdge(u.src, u.tgt, u.label)
		return nil
	}
	_, err := graph.AddEdge(u.src, u.tgt, u.label, u.prior.Properties)
	return err
}

// --- SetProperty ---

// SetProperty assigns an evaluated expression to a property on a bound
// node or edge. A nil Value means REMOVE rather than SET: Execute deletes
// the key instead of evaluating and assigning one.
type SetProperty struct {
	Target string
	Key    string
	Value  *graphcore.Expression

	eval *expr.Evaluator
}

func (a *SetProperty) Validate(_ *graphstore.Graph, bindings *binding.Context) ValidationReport {
	if a.Key == "" {
		return fail("SetProperty requires a non-empty key")
	}
	v, ok := bindings.Get(a.Target)
	if !ok {
		return fail(fmt.Sprintf("variable %q is not bound", a.Target))
	}
	switch v.(type) {
	case *graphcore.Node, *graphcore.Edge:
		return ok()
	}
	return fail(fmt.Sprintf("variable %q is not bound to a node or relationship", a.Target))
}

func (a *SetProperty) Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult {
	target, err := bindings.MustGet(a.Target)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}

	if a.Value == nil {
		switch entity := target.(type) {
		case *graphcore.Node:
			prior, existed, err := graph.RemoveNodeProperty(entity.ID, a.Key)
			if err != nil {
				return ExecuteResult{Success: false, Error: err}
			}
			return ExecuteResult{Success: true, Undo: restoreNodePropertyUndo{id: entity.ID, key: a.Key, prior: prior, existed: existed}}
		case *graphcore.Edge:
			prior, existed, err := graph.RemoveEdgeProperty(entity.Source, entity.Target, entity.Label, a.Key)
			if err != nil {
				return ExecuteResult{Success: false, Error: err}
			}
			return ExecuteResult{Success: true, Undo: restoreEdgePropertyUndo{src: entity.Source, tgt: entity.Target, label: entity.Label, key: a.Key, prior: prior, existed: existed}}
		}
		return ExecuteResult{Success: false, Error: &graphcore.TypeError{Op: "RemoveProperty", Reason: "target is not a node or relationship"}}
	}

	value, err := a.eval.Eval(a.Value, bindings)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}

	switch entity := target.(type) {
	case *graphcore.Node:
		prior, existed, err := graph.SetNodeProperty(entity.ID, a.Key, value)
		if err != nil {
			return ExecuteResult{Success: false, Error: err}
		}
		return ExecuteResult{Success: true, Undo: restoreNodePropertyUndo{id: entity.ID, key: a.Key, prior: prior, existed: existed}}
	case *graphcore.Edge:
		prior, existed, err := graph.SetEdgeProperty(entity.Source, entity.Target, entity.Label, a.Key, value)
		if err != nil {
			return ExecuteResult{Success: false, Error: err}
		}
		return ExecuteResult{Success: true, Undo: restoreEdgePropertyUndo{src: entity.Source, tgt: entity.Target, label: entity.Label, key: a.Key, prior: prior, existed: existed}}
	}
	return ExecuteResult{Success: false, Error: &graphcore.TypeError{Op: "SetProperty", Reason: "target is not a node or relationship"}}
}

func (a *SetProperty) Describe() string {
	if a.Value == nil {
		return fmt.Sprintf("RemoveProperty(%s.%s)", a.Target, a.Key)
	}
	return fmt.Sprintf("SetProperty(%s.%s)", a.Target, a.Key)
}

type restoreNodePropertyUndo struct {
	id      graphcore.NodeID
	key     string
	prior   any
	existed bool
}

func (u restoreNodePropertyUndo) Apply(graph *graphstore.Graph) error {
	if u.existed {
		_, _, err := graph.SetNodeProperty(u.id, u.key, u.prior)
		return err
	}
	_, _, err := graph.RemoveNodeProperty(u.id, u.key)
	return err
}

type restoreEdgePropertyUndo struct {
	src, tgt graphcore.NodeID
	label    string
	key      string
	prior    any
	existed  bool
}

func (u restoreEdgePropertyUndo) Apply(graph *graphstore.Graph) error {
	if u.existed {
		_, _, err := graph.SetEdgeProperty(u.src, u.tgt, u.label, u.key, u.prior)
		return err
	}
	edge := graph.GetEdge(u.src, u.tgt, u.label)
	if edge == nil {
		return nil
	}
	delete(edge.Properties, u.key)
	_, err := graph.AddEdge(u.src, u.tgt, u.label, edge.Properties)
	return err
}

// --- DeleteEntity (supplement: DELETE / DETACH DELETE) ---

// DeleteEntity removes one or more bound nodes or edges. Detach, when set,
// removes incident edges along with a node rather than failing when the
// node still has them.
type DeleteEntity struct {
	Targets []string
	Detach  bool
}

func (a *DeleteEntity) Validate(graph *graphstore.Graph, bindings *binding.Context) ValidationReport {
	for _, t := range a.Targets {
		v, ok := bindings.Get(t)
		if !ok {
			return fail(fmt.Sprintf("variable %q is not bound", t))
		}
		if node, isNode := v.(*graphcore.Node); isNode && !a.Detach {
			if len(graph.GetEdgesForNode(node.ID, graphstore.Both)) > 0 {
				return fail(fmt.Sprintf("node %q still has relationships; use DETACH DELETE", t))
			}
		}
	}
	return ok()
}

func (a *DeleteEntity) Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult {
	var undos []UndoRecord
	for _, t := range a.Targets {
		v, err := bindings.MustGet(t)
		if err != nil {
			return ExecuteResult{Success: false, Error: err}
		}
		switch entity := v.(type) {
		case *graphcore.Node:
			incident := graph.GetEdgesForNode(entity.ID, graphstore.Both)
			for _, e := range incident {
				undos = append(undos, createRelationshipUndo{src: e.Source, tgt: e.Target, label: e.Label, prior: e})
			}
			undos = append(undos, recreateNodeUndo{node: entity})
			graph.RemoveNode(entity.ID)
		case *graphcore.Edge:
			undos = append(undos, createRelationshipUndo{src: entity.Source, tgt: entity.Target, label: entity.Label, prior: entity})
			graph.RemoveEdge(entity.Source, entity.Target, entity.Label)
		default:
			return ExecuteResult{Success: false, Error: &graphcore.TypeError{Op: "DeleteEntity", Reason: "target is not a node or relationship"}}
		}
	}
	return ExecuteResult{Success: true, Undo: compositeUndo(undos)}
}

func (a *DeleteEntity) Describe() string {
	return fmt.Sprintf("DeleteEntity(%v, detach=%v)", a.Targets, a.Detach)
}

type recreateNodeUndo struct{ node *graphcore.Node }

func (u recreateNodeUndo) Apply(graph *graphstore.Graph) error {
	_, err := graph.AddNode(u.node.ID, u.node.Label, u.node.Properties)
	return err
}

// compositeUndo applies several undo records in reverse order, matching the
// executor's own reverse-undo-log discipline for a single action that
// performed several removals.
type compositeUndo []UndoRecord

func (u compositeUndo) Apply(graph *graphstore.Graph) error {
	for i := len(u) - 1; i >= 0; i-- {
		if err := u[i].Apply(graph); err != nil {
			return err
		}
	}
	return nil
}

// --- RemoveLabel (supplement: REMOVE n:Label) ---

// RemoveLabel removes a secondary label from a bound node.
type RemoveLabel struct {
	Target string
	Label  string
}

func (a *RemoveLabel) Validate(_ *graphstore.Graph, bindings *binding.Context) ValidationReport {
	v, ok := bindings.Get(a.Target)
	if !ok {
		return fail(fmt.Sprintf("variable %q is not bound", a.Target))
	}
	if _, isNode := v.(*graphcore.Node); !isNode {
		return fail(fmt.Sprintf("variable %q is not bound to a node", a.Target))
	}
	return ok()
}

func (a *RemoveLabel) Execute(graph *graphstore.Graph, bindings *binding.Context) ExecuteResult {
	v, err := bindings.MustGet(a.Target)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	node := v.(*graphcore.Node)
	removed, err := graph.RemoveNodeLabel(node.ID, a.Label)
	if err != nil {
		return ExecuteResult{Success: false, Error: err}
	}
	if !removed {
		return ExecuteResult{Success: true, Undo: noopUndo{}}
	}
	return ExecuteResult{Success: true, Undo: restoreLabelUndo{id: node.ID, label: a.Label}}
}

func (a *RemoveLabel) Describe() string {
	return fmt.Sprintf("RemoveLabel(%s:%s)", a.Target, a.Label)
}

type restoreLabelUndo struct {
	id    graphcore.NodeID
	label string
}

func (u restoreLabelUndo) Apply(graph *graphstore.Graph) error {
	return graph.AddNodeLabel(u.id, u.label)
}

type noopUndo struct{}

func (noopUndo) Apply(*graphstore.Graph) error { return nil }
