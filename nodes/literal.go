package nodes

// LiteralNode wraps a raw Go value (string, int, float, bool, etc.) as an AST node.
// Compiled as a bound parameter unless the grammar was built WithoutParams.
type LiteralNode struct {
	Predications
	Combinable
	Value any
}

func (n *LiteralNode) Accept(v Visitor) string { return v.VisitLiteral(n) }

// StarNode represents a SQL star (*) or qualified star (table.*).
type StarNode struct {
	Table *Table // nil for unqualified *
}

func (n *StarNode) Accept(v Visitor) string { return v.VisitStar(n) }

// Star returns an unqualified StarNode representing SQL *.
func Star() *StarNode {
	return &StarNode{}
}

// SqlLiteral represents a raw SQL fragment injected verbatim into the query.
//
// SECURITY: Raw is rendered without escaping. Never pass user-controlled
// input as Raw; bind it through Binds instead.
type SqlLiteral struct {
	Predications
	Combinable
	Raw   string
	Binds []any // values for the placeholders inside Raw
}

func NewSqlLiteral(raw string) *SqlLiteral {
	n := &SqlLiteral{Raw: raw}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

func (n *SqlLiteral) Accept(v Visitor) string { return v.VisitSqlLiteral(n) }

// NewBoundSqlLiteral creates a SqlLiteral whose placeholders are bound to binds.
func NewBoundSqlLiteral(raw string, binds ...any) *SqlLiteral {
	n := NewSqlLiteral(raw)
	n.Binds = binds
	return n
}

// BindParamNode is a value that is always sent as a bound parameter.
type BindParamNode struct {
	Value any
}

func (n *BindParamNode) Accept(v Visitor) string { return v.VisitBindParam(n) }

// NewBindParam creates a BindParamNode.
func NewBindParam(value any) *BindParamNode {
	return &BindParamNode{Value: value}
}

// AliasNode represents a column or expression alias: expr as "name".
type AliasNode struct {
	Predications
	Combinable
	Expr Node
	Name string
}

func (n *AliasNode) Accept(v Visitor) string { return v.VisitAlias(n) }

// NewAliasNode creates an AliasNode with properly initialised embedded structs.
func NewAliasNode(expr Node, name string) *AliasNode {
	n := &AliasNode{Expr: expr, Name: name}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}
