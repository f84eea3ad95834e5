package nodes

import "github.com/bawdo/withbee/bindings"

// UnionNode is one branch appended to a SelectCore with union or union all.
type UnionNode struct {
	Query Node // *SelectCore or raw SQL
	All   bool
}

// SelectCore represents the data container for a SELECT statement.
// The fluent API for building queries lives in the managers package.
type SelectCore struct {
	From        Node
	Projections []Node
	Wheres      []Node
	Joins       []*JoinNode
	Groups      []Node
	Havings     []Node
	Orders      []Node
	Limit       Node // nil or LiteralNode
	Offset      Node // nil or LiteralNode
	Distinct    bool

	// With prefixes the statement itself.
	With *WithClause

	Unions      []*UnionNode
	UnionOrders []Node
	UnionLimit  Node
	UnionOffset Node

	// UnionWith prefixes the whole union and is rendered before it.
	UnionWith *WithClause

	// Bindings holds values registered outside the AST, namely the
	// bodies of both WITH clauses. Grammars fill the remaining buckets
	// while compiling.
	Bindings *bindings.Ledger

	// Enclosing names the expressions declared by statements this core is
	// nested in: the union it is a branch of, or the expression it is the
	// body of. Never rendered.
	Enclosing []string
}

func (n *SelectCore) Accept(v Visitor) string { return v.VisitSelectCore(n) }

// Target reports which WITH clause new expressions belong to: the
// statement's own until a union branch exists, the outer union after.
func (n *SelectCore) Target() Target {
	if len(n.Unions) > 0 {
		return TargetUnion
	}
	return TargetStatement
}

// ExpressionNames returns every expression name visible inside n: the
// enclosing names followed by those of both WITH clauses.
func (n *SelectCore) ExpressionNames() []string {
	names := append([]string(nil), n.Enclosing...)
	for _, w := range []*WithClause{n.With, n.UnionWith} {
		for _, e := range w.ExpressionList() {
			names = append(names, e.Name)
		}
	}
	return names
}

// WithClauseFor returns the WITH clause for t, allocating it on first use.
func (n *SelectCore) WithClauseFor(t Target) *WithClause {
	switch t {
	case TargetUnion:
		if n.UnionWith == nil {
			n.UnionWith = &WithClause{}
		}
		return n.UnionWith
	default:
		if n.With == nil {
			n.With = &WithClause{}
		}
		return n.With
	}
}

// Clone returns a copy of the core whose slices, WITH clauses and ledger
// can be modified without affecting n. Nodes themselves are shared.
func (n *SelectCore) Clone() *SelectCore {
	c := *n
	c.Projections = append([]Node(nil), n.Projections...)
	c.Wheres = append([]Node(nil), n.Wheres...)
	c.Joins = append([]*JoinNode(nil), n.Joins...)
	c.Groups = append([]Node(nil), n.Groups...)
	c.Havings = append([]Node(nil), n.Havings...)
	c.Orders = append([]Node(nil), n.Orders...)
	c.Unions = append([]*UnionNode(nil), n.Unions...)
	c.UnionOrders = append([]Node(nil), n.UnionOrders...)
	c.Enclosing = append([]string(nil), n.Enclosing...)
	c.With = cloneWith(n.With)
	c.UnionWith = cloneWith(n.UnionWith)
	if n.Bindings != nil {
		c.Bindings = n.Bindings.Clone()
	}
	return &c
}

func cloneWith(w *WithClause) *WithClause {
	if w == nil {
		return nil
	}
	c := &WithClause{Expressions: append([]*Expression(nil), w.Expressions...)}
	if w.RecursionLimit != nil {
		limit := *w.RecursionLimit
		c.RecursionLimit = &limit
	}
	return c
}
