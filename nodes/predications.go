package nodes

// Predications provides comparison methods to types that embed it.
// The self field must be set to the embedding node so that comparisons
// reference the correct left-hand side.
type Predications struct {
	self Node
}

func (p Predications) compare(op ComparisonOp, val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), op)
}

// Eq creates an equality comparison: self = val.
func (p Predications) Eq(val any) *ComparisonNode { return p.compare(OpEq, val) }

// NotEq creates an inequality comparison: self != val.
func (p Predications) NotEq(val any) *ComparisonNode { return p.compare(OpNotEq, val) }

// Gt creates a greater-than comparison: self > val.
func (p Predications) Gt(val any) *ComparisonNode { return p.compare(OpGt, val) }

// GtEq creates a greater-than-or-equal comparison: self >= val.
func (p Predications) GtEq(val any) *ComparisonNode { return p.compare(OpGtEq, val) }

// Lt creates a less-than comparison: self < val.
func (p Predications) Lt(val any) *ComparisonNode { return p.compare(OpLt, val) }

// LtEq creates a less-than-or-equal comparison: self <= val.
func (p Predications) LtEq(val any) *ComparisonNode { return p.compare(OpLtEq, val) }

// Like creates a LIKE comparison: self like val.
func (p Predications) Like(val any) *ComparisonNode { return p.compare(OpLike, val) }

// NotLike creates a NOT LIKE comparison: self not like val.
func (p Predications) NotLike(val any) *ComparisonNode { return p.compare(OpNotLike, val) }

// In creates an IN predicate: self in (vals...).
func (p Predications) In(vals ...any) *InNode {
	n := &InNode{Expr: p.self, Vals: wrapAll(vals)}
	n.self = n
	return n
}

// NotIn creates a NOT IN predicate: self not in (vals...).
func (p Predications) NotIn(vals ...any) *InNode {
	n := p.In(vals...)
	n.Negate = true
	return n
}

// InQuery creates self in (subquery). The subquery is typically a
// *SelectCore or a manager wrapping one.
func (p Predications) InQuery(sub Node) *InNode {
	n := &InNode{Expr: p.self, Query: sub}
	n.self = n
	return n
}

// Between creates a BETWEEN predicate: self between low and high.
func (p Predications) Between(low, high any) *BetweenNode {
	n := &BetweenNode{Expr: p.self, Low: Literal(low), High: Literal(high)}
	n.self = n
	return n
}

// NotBetween creates a NOT BETWEEN predicate.
func (p Predications) NotBetween(low, high any) *BetweenNode {
	n := p.Between(low, high)
	n.Negate = true
	return n
}

// IsNull creates an IS NULL predicate.
func (p Predications) IsNull() *UnaryNode {
	n := &UnaryNode{Expr: p.self, Op: OpIsNull}
	n.self = n
	return n
}

// IsNotNull creates an IS NOT NULL predicate.
func (p Predications) IsNotNull() *UnaryNode {
	n := &UnaryNode{Expr: p.self, Op: OpIsNotNull}
	n.self = n
	return n
}

// EqAny returns (col = v1 or col = v2 or ...).
func (p Predications) EqAny(vals ...any) *GroupingNode {
	nds := make([]Node, len(vals))
	for i, v := range vals {
		nds[i] = p.compare(OpEq, v)
	}
	return groupOr(nds)
}

// As creates an AliasNode wrapping self with the given alias name.
func (p Predications) As(name string) *AliasNode {
	return NewAliasNode(p.self, name)
}

// OrderDirection is the sort direction of an OrderingNode.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// OrderingNode is one order by term.
type OrderingNode struct {
	Expr      Node
	Direction OrderDirection
}

func (n *OrderingNode) Accept(v Visitor) string { return v.VisitOrdering(n) }

// Asc creates an ascending ordering node.
func (p Predications) Asc() *OrderingNode {
	return &OrderingNode{Expr: p.self, Direction: Asc}
}

// Desc creates a descending ordering node.
func (p Predications) Desc() *OrderingNode {
	return &OrderingNode{Expr: p.self, Direction: Desc}
}

func wrapAll(vals []any) []Node {
	out := make([]Node, len(vals))
	for i, v := range vals {
		out[i] = Literal(v)
	}
	return out
}

// groupOr chains nodes with OR and wraps in a GroupingNode.
// Returns nil if nds is empty.
func groupOr(nds []Node) *GroupingNode {
	if len(nds) == 0 {
		return nil
	}
	result := nds[0]
	for _, nd := range nds[1:] {
		or := &OrNode{Left: result, Right: nd}
		or.self = or
		result = or
	}
	g := &GroupingNode{Expr: result}
	g.self = g
	return g
}

// And chains conditions with AND. Returns nil when conds is empty.
func And(conds ...Node) Node {
	if len(conds) == 0 {
		return nil
	}
	result := conds[0]
	for _, c := range conds[1:] {
		and := &AndNode{Left: result, Right: c}
		and.self = and
		result = and
	}
	return result
}
