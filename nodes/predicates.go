package nodes

// ComparisonOp represents a binary comparison operator.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNotEq
	OpGt
	OpGtEq
	OpLt
	OpLtEq
	OpLike
	OpNotLike
)

// ComparisonNode represents a binary comparison: Left Op Right.
type ComparisonNode struct {
	Combinable
	Left  Node
	Right Node
	Op    ComparisonOp
}

func (n *ComparisonNode) Accept(v Visitor) string { return v.VisitComparison(n) }

// NewComparisonNode creates a ComparisonNode with properly initialised embedded structs.
func NewComparisonNode(left, right Node, op ComparisonOp) *ComparisonNode {
	n := &ComparisonNode{Left: left, Right: right, Op: op}
	n.self = n
	return n
}

// AndNode represents a logical AND between two expressions.
type AndNode struct {
	Combinable
	Left  Node
	Right Node
}

func (n *AndNode) Accept(v Visitor) string { return v.VisitAnd(n) }

// OrNode represents a logical OR between two expressions.
type OrNode struct {
	Combinable
	Left  Node
	Right Node
}

func (n *OrNode) Accept(v Visitor) string { return v.VisitOr(n) }

// NotNode represents a logical NOT of an expression.
type NotNode struct {
	Combinable
	Expr Node
}

func (n *NotNode) Accept(v Visitor) string { return v.VisitNot(n) }

// InNode represents an IN or NOT IN predicate over a value list or,
// when Query is set, over a subquery.
type InNode struct {
	Combinable
	Expr   Node
	Vals   []Node
	Query  Node
	Negate bool
}

func (n *InNode) Accept(v Visitor) string { return v.VisitIn(n) }

// BetweenNode represents a BETWEEN or NOT BETWEEN range predicate.
type BetweenNode struct {
	Combinable
	Expr   Node
	Low    Node
	High   Node
	Negate bool
}

func (n *BetweenNode) Accept(v Visitor) string { return v.VisitBetween(n) }

// GroupingNode wraps an expression in parentheses for precedence control.
type GroupingNode struct {
	Combinable
	Expr Node
}

func (n *GroupingNode) Accept(v Visitor) string { return v.VisitGrouping(n) }

// UnaryOp represents a unary postfix operator.
type UnaryOp int

const (
	OpIsNull UnaryOp = iota
	OpIsNotNull
)

// UnaryNode represents Expr is null / is not null.
type UnaryNode struct {
	Combinable
	Expr Node
	Op   UnaryOp
}

func (n *UnaryNode) Accept(v Visitor) string { return v.VisitUnary(n) }

// ExistsNode represents an EXISTS or NOT EXISTS subquery expression.
type ExistsNode struct {
	Combinable
	Subquery Node
	Negated  bool
}

func (n *ExistsNode) Accept(v Visitor) string { return v.VisitExists(n) }

// Exists creates an EXISTS(subquery) node.
func Exists(subquery Node) *ExistsNode {
	n := &ExistsNode{Subquery: subquery}
	n.self = n
	return n
}

// NotExists creates a NOT EXISTS(subquery) node.
func NotExists(subquery Node) *ExistsNode {
	n := &ExistsNode{Subquery: subquery, Negated: true}
	n.self = n
	return n
}
