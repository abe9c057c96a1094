package graphcore

// ExprKind tags the variant of an Expression, mirroring the discriminated
// layout of a parsed WHERE/SET expression tree. The lexer/parser that
// produces these trees from rule text lives in pkg/rulelang as a separate
// collaborator; this package only defines the shape the core consumes.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprVariable
	ExprProperty
	ExprNot
	ExprAnd
	ExprOr
	ExprBinary // comparisons and arithmetic, tagged further by Op
	ExprIsNull
	ExprIsNotNull
	ExprIn
)

// BinaryOp identifies the operator of an ExprBinary node.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Expression is a node in a WHERE/value expression tree. Only the fields
// relevant to Kind are populated; dispatch is by Kind, not by type
// assertion, so the tree stays a flat tagged variant rather than an
// interface hierarchy.
type Expression struct {
	Kind ExprKind

	// ExprLiteral
	Literal any

	// ExprVariable
	Variable string

	// ExprProperty: Target.Property, e.g. n.name
	Target   string
	Property string

	// ExprNot, ExprIsNull, ExprIsNotNull: Operand
	Operand *Expression

	// ExprAnd, ExprOr: Left, Right
	// ExprBinary: Left, Right, Op
	Left  *Expression
	Right *Expression
	Op    BinaryOp

	// ExprIn: Left IN List
	List []*Expression
}

// Lit constructs a literal expression node; a small convenience used
// throughout tests and the action templates below.
func Lit(v any) *Expression { return &Expression{Kind: ExprLiteral, Literal: v} }

// Var constructs a variable-reference expression node.
func Var(name string) *Expression { return &Expression{Kind: ExprVariable, Variable: name} }

// Prop constructs a property-access expression node (target.property).
func Prop(target, property string) *Expression {
	return &Expression{Kind: ExprProperty, Target: target, Property: property}
}
