// Package ruleengine is the glue component: it turns a rule's AST into
// matches, bindings, and actions, and assembles the per-rule result.
package ruleengine

import (
	"fmt"

	"github.com/orneryd/graphrules/pkg/actions"
	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/combiner"
	"github.com/orneryd/graphrules/pkg/executor"
	"github.com/orneryd/graphrules/pkg/expr"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
	"github.com/orneryd/graphrules/pkg/matcher"
	"github.com/orneryd/graphrules/pkg/rlog"
	"github.com/orneryd/graphrules/pkg/rulelang"
)

// ParseFunc parses rule text into an AST. The default is rulelang.Parse;
// tests substitute a stub to isolate the engine from the grammar — the
// parser is an external collaborator of the core, not part of it.
type ParseFunc func(ruleText string) (*graphcore.RuleAST, error)

// ActionResult mirrors executor.ActionResult but reports the action's
// description instead of the action value itself, since RuleResult is a
// serializable/loggable record, not a live object graph.
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Action  string `json:"action"`
}

// RuleResult is the outcome of executing one rule, exposing its name,
// description, and priority alongside the execution outcome.
// Name/Description/Priority are only populated when the rule was extracted
// from a Markdown graphrule block by ExecuteQueriesFromMarkdown; a rule run
// directly through ExecuteQuery carries no header metadata.
type RuleResult struct {
	Rule        string         `json:"rule"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Priority    int            `json:"priority,omitempty"`
	Success     bool           `json:"success"`
	MatchCount  int            `json:"matchCount"`
	Actions     []ActionResult `json:"actions"`
	Rows        [][]any        `json:"rows,omitempty"` // supplement: RETURN projection
	Error       string         `json:"error,omitempty"`
}

// Engine executes rule text against a graph.
type Engine struct {
	Parse           ParseFunc
	MatcherConfig   matcher.Config
	Evaluator       *expr.Evaluator
	IDGenerator     actions.IDGenerator
	ExecutorOptions executor.Options
}

// New returns an Engine with conservative defaults: validateBeforeExecute=false,
// continueOnFailure=false, rollbackOnFailure=false, the default matcher
// configuration, and a counter-based id generator.
func New() *Engine {
	return &Engine{
		Parse:         rulelang.Parse,
		MatcherConfig: matcher.DefaultConfig(),
		Evaluator:     expr.New(),
		IDGenerator:   actions.NewCounterIDGenerator(),
	}
}

// ExecuteQuery runs one rule's text against graph and returns its result.
func (e *Engine) ExecuteQuery(graph *graphstore.Graph, ruleText string) RuleResult {
	rlog.Debugf("executing rule: %s", ruleText)
	ast, err := e.Parse(ruleText)
	if err != nil {
		rlog.Errorf("rule parse error: %v", err)
		return RuleResult{Rule: ruleText, Success: false, Error: fmt.Sprintf("parse error: %v", err)}
	}
	result := e.executeAST(graph, ruleText, ast)
	if result.Success {
		rlog.Debugf("rule completed: %d match(es)", result.MatchCount)
	} else {
		rlog.Warnf("rule failed: %s", result.Error)
	}
	return result
}

func (e *Engine) executeAST(graph *graphstore.Graph, ruleText string, ast *graphcore.RuleAST) RuleResult {
	m := matcher.New(graph, e.MatcherConfig)

	var tuples []*binding.Context
	if !ast.HasMatch() {
		tuples = []*binding.Context{binding.New()}
	} else {
		tuples = e.matchAndCombine(m, ast)
	}

	result := RuleResult{Rule: ruleText, Success: true}

	actionTemplates := ast.Actions
	builtActions := make([]actions.Action, 0, len(actionTemplates))
	for _, tmpl := range actionTemplates {
		a, err := actions.Build(tmpl, e.Evaluator, e.IDGenerator)
		if err != nil {
			return RuleResult{Rule: ruleText, Success: false, Error: err.Error()}
		}
		builtActions = append(builtActions, a)
	}

	for _, tuple := range tuples {
		perMatch := tuple.Clone()
		execResult := executor.ExecuteActions(graph, builtActions, perMatch, e.ExecutorOptions)
		result.MatchCount++
		for _, ar := range execResult.ActionResults {
			ir := ActionResult{Success: ar.Success, Action: ar.Action.Describe()}
			if ar.Error != nil {
				ir.Error = ar.Error.Error()
			}
			result.Actions = append(result.Actions, ir)
		}
		if !execResult.Success {
			result.Success = false
			if execResult.Error != nil && result.Error == "" {
				result.Error = execResult.Error.Error()
			}
		}
		if len(ast.Return) > 0 {
			row, err := e.projectReturn(ast.Return, perMatch)
			if err != nil {
				result.Success = false
				if result.Error == "" {
					result.Error = err.Error()
				}
				continue
			}
			result.Rows = append(result.Rows, row)
		}
	}

	return result
}

func (e *Engine) projectReturn(items []graphcore.ReturnItem, ctx *binding.Context) ([]any, error) {
	row := make([]any, len(items))
	for i, item := range items {
		v, err := e.Evaluator.Eval(item.Expr, ctx)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// matchAndCombine runs the matcher on each path pattern independently,
// combines the per-pattern sets, and filters the combined tuples through
// the WHERE expression.
func (e *Engine) matchAndCombine(m *matcher.Matcher, ast *graphcore.RuleAST) []*binding.Context {
	sets := make([][]*binding.Context, len(ast.Matches))
	for i, pattern := range ast.Matches {
		sets[i] = contextsForPattern(m, pattern)
	}

	// OPTIONAL MATCH (supplement): an empty per-pattern set no longer
	// zeroes out the whole combiner output — it contributes one all-unbound
	// placeholder tuple instead, so later clauses see nulls for that
	// pattern's variables rather than losing the match entirely.
	if ast.Optional {
		for i, set := range sets {
			if len(set) == 0 {
				sets[i] = []*binding.Context{binding.New()}
			}
		}
	}

	combined := combiner.Combine(sets)
	if ast.Where == nil {
		return combined
	}

	var out []*binding.Context
	for _, tuple := range combined {
		v, err := e.Evaluator.Eval(ast.Where, tuple)
		if err != nil {
			continue
		}
		if expr.Truth(v) {
			out = append(out, tuple)
		}
	}
	return out
}

// contextsForPattern matches one path pattern in isolation and converts
// each result into a binding context carrying every variable the pattern
// names: the start node, intermediate nodes, and relationships.
func contextsForPattern(m *matcher.Matcher, pattern *graphcore.PathPattern) []*binding.Context {
	paths := m.FindMatchingPaths(pattern)
	out := make([]*binding.Context, 0, len(paths))
	for _, path := range paths {
		ctx := binding.New()
		if pattern.Start.Variable != "" && len(path.Nodes) > 0 {
			ctx.Set(pattern.Start.Variable, path.Nodes[0])
		}
		for i, seg := range pattern.Segments {
			if seg.Rel.Variable != "" && i < len(path.Edges) {
				ctx.Set(seg.Rel.Variable, path.Edges[i])
			}
			if seg.Node.Variable != "" && i+1 < len(path.Nodes) {
				ctx.Set(seg.Node.Variable, path.Nodes[i+1])
			}
		}
		out = append(out, ctx)
	}
	return out
}
