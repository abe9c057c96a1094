package graphcore

// RuleAST is the parsed form of one rule's text: an optional match section,
// a body of action templates, and an optional return projection.
// pkg/rulelang produces these; pkg/ruleengine only consumes them.
type RuleAST struct {
	Matches  []*PathPattern
	Optional bool // supplement: OPTIONAL MATCH — unmatched patterns bind nulls instead of eliminating the tuple
	Where    *Expression
	Actions  []*ActionTemplate
	Return   []ReturnItem
}

// ReturnItem is one projected value in a RETURN list, with an optional
// alias (supplement: RETURN projection).
type ReturnItem struct {
	Expr  *Expression
	Alias string
}

// HasMatch reports whether the rule has a MATCH section at all; a
// CREATE-only rule has none.
func (r *RuleAST) HasMatch() bool {
	return len(r.Matches) > 0
}
