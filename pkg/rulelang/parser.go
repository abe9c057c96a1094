package rulelang

import (
	"fmt"
	"strings"

	"github.com/orneryd/graphrules/pkg/graphcore"
)

type parser struct {
	toks []token
	pos  int
}

// Parse turns one rule's text into a graphcore.RuleAST.
func Parse(src string) (*graphcore.RuleAST, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	ast, err := p.parseRule()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.peek().text)
	}
	return ast, nil
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool  { return p.peek().kind == tokEOF }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.upper == kw
}

func (p *parser) atPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("expected %s, got %q", kw, p.peek().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectPunct(s string) error {
	if !p.atPunct(s) {
		return fmt.Errorf("expected %q, got %q", s, p.peek().text)
	}
	p.advance()
	return nil
}

func (p *parser) parseRule() (*graphcore.RuleAST, error) {
	ast := &graphcore.RuleAST{}

	if p.atKeyword("OPTIONAL") {
		p.advance()
		ast.Optional = true
		if err := p.expectKeyword("MATCH"); err != nil {
			return nil, err
		}
		patterns, err := p.parsePatternList()
		if err != nil {
			return nil, err
		}
		ast.Matches = patterns
	} else if p.atKeyword("MATCH") {
		p.advance()
		patterns, err := p.parsePatternList()
		if err != nil {
			return nil, err
		}
		ast.Matches = patterns
	}

	if p.atKeyword("WHERE") {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		ast.Where = expr
	}

	for p.atKeyword("CREATE") || p.atKeyword("SET") || p.atKeyword("DELETE") || p.atKeyword("DETACH") || p.atKeyword("REMOVE") {
		switch {
		case p.atKeyword("CREATE"):
			p.advance()
			actions, err := p.parseCreateClause()
			if err != nil {
				return nil, err
			}
			ast.Actions = append(ast.Actions, actions...)
		case p.atKeyword("SET"):
			p.advance()
			actions, err := p.parseSetClause()
			if err != nil {
				return nil, err
			}
			ast.Actions = append(ast.Actions, actions...)
		case p.atKeyword("DETACH"):
			p.advance()
			if err := p.expectKeyword("DELETE"); err != nil {
				return nil, err
			}
			tmpl, err := p.parseDeleteClause(true)
			if err != nil {
				return nil, err
			}
			ast.Actions = append(ast.Actions, tmpl)
		case p.atKeyword("DELETE"):
			p.advance()
			tmpl, err := p.parseDeleteClause(false)
			if err != nil {
				return nil, err
			}
			ast.Actions = append(ast.Actions, tmpl)
		case p.atKeyword("REMOVE"):
			p.advance()
			actions, err := p.parseRemoveClause()
			if err != nil {
				return nil, err
			}
			ast.Actions = append(ast.Actions, actions...)
		}
	}

	if p.atKeyword("RETURN") {
		p.advance()
		items, err := p.parseReturnList()
		if err != nil {
			return nil, err
		}
		ast.Return = items
	}

	return ast, nil
}

// --- patterns ---

func (p *parser) parsePatternList() ([]*graphcore.PathPattern, error) {
	var out []*graphcore.PathPattern
	for {
		pat, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		out = append(out, pat)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parsePathPattern() (*graphcore.PathPattern, error) {
	start, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	pattern := &graphcore.PathPattern{Start: start}

	for p.atPunct("-") || p.atPunct("<-") {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		pattern.Segments = append(pattern.Segments, seg)
	}
	return pattern, nil
}

func (p *parser) parseSegment() (graphcore.PathSegment, error) {
	incoming := false
	if p.atPunct("<-") {
		incoming = true
		p.advance()
	} else if err := p.expectPunct("-"); err != nil {
		return graphcore.PathSegment{}, err
	}

	rel := graphcore.RelationshipPattern{Direction: graphcore.DirectionOutgoing}
	if incoming {
		rel.Direction = graphcore.DirectionIncoming
	}

	if p.atPunct("[") {
		p.advance()
		if p.peek().kind == tokIdent {
			rel.Variable = p.advance().text
		}
		for p.atPunct(":") {
			p.advance()
			if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
				return graphcore.PathSegment{}, fmt.Errorf("expected relationship type, got %q", p.peek().text)
			}
			rel.Type = p.advance().text
		}
		if p.atPunct("*") {
			p.advance()
			rel.HasStar = true
			if p.peek().kind == tokNumber {
				min, err := parseNumberLiteral(p.advance().text)
				if err != nil {
					return graphcore.PathSegment{}, err
				}
				m := int(min)
				rel.MinHops = &m
			}
			if p.atPunct("..") {
				p.advance()
				if p.peek().kind == tokNumber {
					max, err := parseNumberLiteral(p.advance().text)
					if err != nil {
						return graphcore.PathSegment{}, err
					}
					mx := int(max)
					rel.MaxHops = &mx
				}
			} else if rel.MinHops != nil {
				rel.MaxHops = rel.MinHops
			}
		}
		if p.atPunct("{") {
			props, err := p.parsePropertyMapExpr()
			if err != nil {
				return graphcore.PathSegment{}, err
			}
			rel.Properties = make(map[string]any, len(props))
			for k, e := range props {
				lit, err := toLiteral(e)
				if err != nil {
					return graphcore.PathSegment{}, err
				}
				rel.Properties[k] = lit
			}
		}
		if err := p.expectPunct("]"); err != nil {
			return graphcore.PathSegment{}, err
		}
	}

	if p.atPunct("->") {
		p.advance()
		if incoming {
			rel.Direction = graphcore.DirectionBoth
		}
	} else if err := p.expectPunct("-"); err != nil {
		return graphcore.PathSegment{}, err
	}

	node, err := p.parseNodePattern()
	if err != nil {
		return graphcore.PathSegment{}, err
	}
	return graphcore.PathSegment{Rel: rel, Node: node}, nil
}

func (p *parser) parseNodePattern() (graphcore.NodePattern, error) {
	if err := p.expectPunct("("); err != nil {
		return graphcore.NodePattern{}, err
	}
	np := graphcore.NodePattern{}
	if p.peek().kind == tokIdent {
		np.Variable = p.advance().text
	}
	for p.atPunct(":") {
		p.advance()
		if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
			return graphcore.NodePattern{}, fmt.Errorf("expected label, got %q", p.peek().text)
		}
		np.Labels = append(np.Labels, p.advance().text)
	}
	if p.atPunct("{") {
		props, err := p.parsePropertyMapExpr()
		if err != nil {
			return graphcore.NodePattern{}, err
		}
		np.Properties = make(map[string]any, len(props))
		for k, e := range props {
			lit, err := toLiteral(e)
			if err != nil {
				return graphcore.NodePattern{}, err
			}
			np.Properties[k] = lit
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return graphcore.NodePattern{}, err
	}
	return np, nil
}

// parsePropertyMapExpr parses '{' key ':' expr (',' key ':' expr)* '}' into
// an expression map, shared by pattern property constraints (which require
// every value to reduce to a literal, enforced by toLiteral) and CREATE/SET
// clauses (which allow arbitrary expressions).
func (p *parser) parsePropertyMapExpr() (map[string]*graphcore.Expression, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	out := make(map[string]*graphcore.Expression)
	if p.atPunct("}") {
		p.advance()
		return out, nil
	}
	for {
		if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
			return nil, fmt.Errorf("expected property key, got %q", p.peek().text)
		}
		key := p.advance().text
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		out[key] = val
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return out, nil
}

func toLiteral(e *graphcore.Expression) (any, error) {
	if e.Kind != graphcore.ExprLiteral {
		return nil, fmt.Errorf("pattern property values must be literals")
	}
	return e.Literal, nil
}

// --- action clauses ---

func (p *parser) parseCreateClause() ([]*graphcore.ActionTemplate, error) {
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	var out []*graphcore.ActionTemplate
	for _, pat := range patterns {
		out = append(out, templatesFromCreatePattern(pat)...)
	}
	return out, nil
}

// templatesFromCreatePattern turns one CREATE pattern into CreateNode
// templates for every node carrying labels or properties (a "new" node) and
// CreateRelationship templates chaining consecutive nodes, in the order
// encountered. CREATE-only rules resolve through this same action-template
// pipeline as matched rules, rather than a separate code path.
func templatesFromCreatePattern(pat *graphcore.PathPattern) []*graphcore.ActionTemplate {
	var out []*graphcore.ActionTemplate
	nodes := []graphcore.NodePattern{pat.Start}
	for _, seg := range pat.Segments {
		nodes = append(nodes, seg.Node)
	}

	isNew := func(n graphcore.NodePattern) bool {
		return len(n.Labels) > 0 || len(n.Properties) > 0
	}
	propExprs := func(n graphcore.NodePattern) map[string]*graphcore.Expression {
		m := make(map[string]*graphcore.Expression, len(n.Properties))
		for k, v := range n.Properties {
			m[k] = graphcore.Lit(v)
		}
		return m
	}

	for _, n := range nodes {
		if isNew(n) {
			out = append(out, &graphcore.ActionTemplate{
				Kind:       graphcore.ActionCreateNode,
				Variable:   n.Variable,
				Labels:     n.Labels,
				Properties: propExprs(n),
			})
		}
	}

	for i, seg := range pat.Segments {
		fromVar := nodes[i].Variable
		toVar := seg.Node.Variable
		relProps := make(map[string]*graphcore.Expression, len(seg.Rel.Properties))
		for k, v := range seg.Rel.Properties {
			relProps[k] = graphcore.Lit(v)
		}
		out = append(out, &graphcore.ActionTemplate{
			Kind:       graphcore.ActionCreateRelationship,
			Variable:   seg.Rel.Variable,
			FromVar:    fromVar,
			ToVar:      toVar,
			RelType:    seg.Rel.Type,
			Properties: relProps,
		})
	}
	return out
}

func (p *parser) parseSetClause() ([]*graphcore.ActionTemplate, error) {
	var out []*graphcore.ActionTemplate
	for {
		if p.peek().kind != tokIdent {
			return nil, fmt.Errorf("expected variable, got %q", p.peek().text)
		}
		target := p.advance().text
		if err := p.expectPunct("."); err != nil {
			return nil, err
		}
		if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
			return nil, fmt.Errorf("expected property key, got %q", p.peek().text)
		}
		key := p.advance().text
		if p.atPunct("=") {
			p.advance()
		} else if err := p.expectPunct("=="); err != nil {
			return nil, err
		}
		val, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, &graphcore.ActionTemplate{Kind: graphcore.ActionSetProperty, Target: target, Key: key, Value: val})
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseDeleteClause(detach bool) (*graphcore.ActionTemplate, error) {
	var targets []string
	for {
		if p.peek().kind != tokIdent {
			return nil, fmt.Errorf("expected variable, got %q", p.peek().text)
		}
		targets = append(targets, p.advance().text)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &graphcore.ActionTemplate{Kind: graphcore.ActionDeleteEntity, Targets: targets, Detach: detach}, nil
}

// parseRemoveClause handles both REMOVE forms: `n:Label` (RemoveLabel) and
// `n.prop` (a SetProperty template with a nil Value, the property-removal
// convention pkg/actions.SetProperty.Execute honors).
func (p *parser) parseRemoveClause() ([]*graphcore.ActionTemplate, error) {
	var out []*graphcore.ActionTemplate
	for {
		if p.peek().kind != tokIdent {
			return nil, fmt.Errorf("expected variable, got %q", p.peek().text)
		}
		target := p.advance().text
		switch {
		case p.atPunct(":"):
			p.advance()
			if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
				return nil, fmt.Errorf("expected label, got %q", p.peek().text)
			}
			label := p.advance().text
			out = append(out, &graphcore.ActionTemplate{Kind: graphcore.ActionRemoveLabel, Target: target, Key: label})
		case p.atPunct("."):
			p.advance()
			if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
				return nil, fmt.Errorf("expected property key, got %q", p.peek().text)
			}
			key := p.advance().text
			out = append(out, &graphcore.ActionTemplate{Kind: graphcore.ActionSetProperty, Target: target, Key: key, Value: nil})
		default:
			return nil, fmt.Errorf("expected \":\" or \".\" after %q, got %q", target, p.peek().text)
		}
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseReturnList() ([]graphcore.ReturnItem, error) {
	var out []graphcore.ReturnItem
	for {
		e, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		item := graphcore.ReturnItem{Expr: e}
		if p.atKeyword("AS") {
			p.advance()
			if p.peek().kind != tokIdent {
				return nil, fmt.Errorf("expected alias, got %q", p.peek().text)
			}
			item.Alias = p.advance().text
		}
		out = append(out, item)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// --- expressions ---

func (p *parser) parseOrExpr() (*graphcore.Expression, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &graphcore.Expression{Kind: graphcore.ExprOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (*graphcore.Expression, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("AND") {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &graphcore.Expression{Kind: graphcore.ExprAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNotExpr() (*graphcore.Expression, error) {
	if p.atKeyword("NOT") {
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &graphcore.Expression{Kind: graphcore.ExprNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]graphcore.BinaryOp{
	"=": graphcore.OpEq, "<>": graphcore.OpNeq,
	"<": graphcore.OpLt, "<=": graphcore.OpLte,
	">": graphcore.OpGt, ">=": graphcore.OpGte,
}

func (p *parser) parseComparison() (*graphcore.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.atKeyword("IS") {
		p.advance()
		negate := false
		if p.atKeyword("NOT") {
			negate = true
			p.advance()
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		if negate {
			return &graphcore.Expression{Kind: graphcore.ExprIsNotNull, Operand: left}, nil
		}
		return &graphcore.Expression{Kind: graphcore.ExprIsNull, Operand: left}, nil
	}

	if p.atKeyword("IN") {
		p.advance()
		if err := p.expectPunct("["); err != nil {
			return nil, err
		}
		var list []*graphcore.Expression
		if !p.atPunct("]") {
			for {
				item, err := p.parseOrExpr()
				if err != nil {
					return nil, err
				}
				list = append(list, item)
				if p.atPunct(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &graphcore.Expression{Kind: graphcore.ExprIn, Left: left, List: list}, nil
	}

	if p.peek().kind == tokPunct {
		if op, ok := comparisonOps[p.peek().text]; ok {
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &graphcore.Expression{Kind: graphcore.ExprBinary, Op: op, Left: left, Right: right}, nil
		}
	}

	return left, nil
}

func (p *parser) parseAdditive() (*graphcore.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.atPunct("+") || p.atPunct("-") {
		op := graphcore.OpAdd
		if p.peek().text == "-" {
			op = graphcore.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &graphcore.Expression{Kind: graphcore.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*graphcore.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atPunct("*") || p.atPunct("/") || p.atPunct("%") {
		var op graphcore.BinaryOp
		switch p.peek().text {
		case "*":
			op = graphcore.OpMul
		case "/":
			op = graphcore.OpDiv
		case "%":
			op = graphcore.OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &graphcore.Expression{Kind: graphcore.ExprBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*graphcore.Expression, error) {
	if p.atPunct("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &graphcore.Expression{Kind: graphcore.ExprBinary, Op: graphcore.OpSub, Left: graphcore.Lit(0.0), Right: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*graphcore.Expression, error) {
	t := p.peek()
	switch {
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		e, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	case t.kind == tokNumber:
		p.advance()
		f, err := parseNumberLiteral(t.text)
		if err != nil {
			return nil, err
		}
		return graphcore.Lit(f), nil

	case t.kind == tokString:
		p.advance()
		return graphcore.Lit(t.text), nil

	case t.kind == tokKeyword && t.upper == "TRUE":
		p.advance()
		return graphcore.Lit(true), nil

	case t.kind == tokKeyword && t.upper == "FALSE":
		p.advance()
		return graphcore.Lit(false), nil

	case t.kind == tokKeyword && t.upper == "NULL":
		p.advance()
		return graphcore.Lit(nil), nil

	case t.kind == tokIdent:
		p.advance()
		if p.atPunct(".") {
			p.advance()
			if p.peek().kind != tokIdent && p.peek().kind != tokKeyword {
				return nil, fmt.Errorf("expected property name, got %q", p.peek().text)
			}
			prop := p.advance().text
			return &graphcore.Expression{Kind: graphcore.ExprProperty, Target: t.text, Property: prop}, nil
		}
		return graphcore.Var(t.text), nil
	}

	return nil, fmt.Errorf("unexpected token %q", strings.TrimSpace(t.text))
}
