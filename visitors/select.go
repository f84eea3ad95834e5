package visitors

import (
	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/nodes"
)

// selectComponent renders one clause of a select, or "" when the clause
// is absent. Components switch to their clause's bucket before visiting.
type selectComponent func(b *baseVisitor, n *nodes.SelectCore) string

// standardComponents is the clause order shared by most dialects. The
// recursion limit is the last clause of the statement itself and sits
// before any union.
var standardComponents = []selectComponent{
	(*baseVisitor).componentExpressions,
	(*baseVisitor).componentColumns,
	(*baseVisitor).componentFrom,
	(*baseVisitor).componentJoins,
	(*baseVisitor).componentWheres,
	(*baseVisitor).componentGroups,
	(*baseVisitor).componentHavings,
	(*baseVisitor).componentOrders,
	(*baseVisitor).componentPagination,
	(*baseVisitor).componentRecursionLimit,
}

// CompileSelect renders core with every clause, union and WITH prologue.
func (b *baseVisitor) CompileSelect(core *nodes.SelectCore) (string, []any) {
	b.begin(core.Bindings, bindings.Select)
	sql := b.outer.selectSQL(core, false)
	return sql, b.ledger.Flatten(bindings.SelectOrder...)
}

// CompileExpressionBody renders core as the body of a common table
// expression.
func (b *baseVisitor) CompileExpressionBody(core *nodes.SelectCore) (string, []any) {
	b.begin(core.Bindings, bindings.Select)
	sql := b.outer.selectSQL(core, true)
	return sql, b.ledger.Flatten(bindings.SelectOrder...)
}

func (b *baseVisitor) selectSQL(n *nodes.SelectCore, body bool) string {
	sql := b.outer.statementSQL(n)
	if len(n.Unions) > 0 {
		sql = b.unionsSQL(sql, n, body)
	}
	if prologue := b.outer.CompileExpressions(n.UnionWith.ExpressionList()); prologue != "" {
		sql = prologue + " " + sql
	}
	if limit := b.outer.CompileRecursionLimit(n.UnionWith.Limit()); limit != "" {
		sql += " " + limit
	}
	return sql
}

func (b *baseVisitor) statementSQL(n *nodes.SelectCore) string {
	parts := make([]string, len(b.components))
	for i, c := range b.components {
		parts[i] = c(b, n)
	}
	return joinClauses(parts...)
}

func (b *baseVisitor) unionsSQL(first string, n *nodes.SelectCore, body bool) string {
	parts := []string{b.outer.wrapUnion(first)}

	saved := b.bucket
	b.bucket = bindings.Union
	for _, u := range n.Unions {
		keyword := "union"
		if u.All {
			keyword = "union all"
		}
		parts = append(parts, b.outer.unionBranch(keyword, u.Query.Accept(b.outer), body))
	}
	b.bucket = bindings.UnionOrder
	parts = append(parts, b.ordersSQL(n.UnionOrders))
	parts = append(parts, b.outer.paginate(n.UnionLimit, n.UnionOffset))
	b.bucket = saved

	return joinClauses(parts...)
}

func (b *baseVisitor) wrapUnion(sql string) string {
	return "(" + sql + ")"
}

func (b *baseVisitor) unionBranch(keyword, sql string, _ bool) string {
	return keyword + " " + b.outer.wrapUnion(sql)
}

func (b *baseVisitor) paginate(limit, offset nodes.Node) string {
	var parts []string
	if limit != nil {
		parts = append(parts, "limit "+b.countSQL(limit))
	}
	if offset != nil {
		parts = append(parts, "offset "+b.countSQL(offset))
	}
	return joinClauses(parts...)
}

// fetchPaginate renders the standard offset/fetch clauses.
func (b *baseVisitor) fetchPaginate(limit, offset nodes.Node) string {
	var parts []string
	if offset != nil {
		parts = append(parts, "offset "+b.countSQL(offset)+" rows")
	}
	if limit != nil {
		keyword := "first"
		if offset != nil {
			keyword = "next"
		}
		parts = append(parts, "fetch "+keyword+" "+b.countSQL(limit)+" rows only")
	}
	return joinClauses(parts...)
}

func (b *baseVisitor) componentExpressions(n *nodes.SelectCore) string {
	return b.outer.CompileExpressions(n.With.ExpressionList())
}

func (b *baseVisitor) componentColumns(n *nodes.SelectCore) string {
	return b.in(bindings.Select, func() string { return b.columnsSQL(n, "") })
}

func (b *baseVisitor) componentFrom(n *nodes.SelectCore) string {
	if n.From == nil {
		return ""
	}
	return b.in(bindings.From, func() string { return "from " + n.From.Accept(b.outer) })
}

func (b *baseVisitor) componentJoins(n *nodes.SelectCore) string {
	return b.in(bindings.Join, func() string { return b.joinsSQL(n.Joins) })
}

func (b *baseVisitor) componentWheres(n *nodes.SelectCore) string {
	return b.in(bindings.Where, func() string { return b.wheresSQL(n.Wheres) })
}

func (b *baseVisitor) componentGroups(n *nodes.SelectCore) string {
	if len(n.Groups) == 0 {
		return ""
	}
	return b.in(bindings.Groups, func() string { return "group by " + b.listSQL(n.Groups, ", ") })
}

func (b *baseVisitor) componentHavings(n *nodes.SelectCore) string {
	if len(n.Havings) == 0 {
		return ""
	}
	return b.in(bindings.Having, func() string { return "having " + b.listSQL(n.Havings, " and ") })
}

func (b *baseVisitor) componentOrders(n *nodes.SelectCore) string {
	return b.in(bindings.Order, func() string { return b.ordersSQL(n.Orders) })
}

func (b *baseVisitor) componentPagination(n *nodes.SelectCore) string {
	return b.in(bindings.Order, func() string { return b.outer.paginate(n.Limit, n.Offset) })
}

func (b *baseVisitor) componentRecursionLimit(n *nodes.SelectCore) string {
	return b.outer.CompileRecursionLimit(n.With.Limit())
}

// columnsSQL renders "select [distinct ][prefix ]projections".
func (b *baseVisitor) columnsSQL(n *nodes.SelectCore, prefix string) string {
	sql := "select "
	if n.Distinct {
		sql += "distinct "
	}
	if prefix != "" {
		sql += prefix + " "
	}
	if len(n.Projections) == 0 {
		return sql + "*"
	}
	return sql + b.listSQL(n.Projections, ", ")
}

func (b *baseVisitor) joinsSQL(joins []*nodes.JoinNode) string {
	parts := make([]string, len(joins))
	for i, j := range joins {
		parts[i] = j.Accept(b.outer)
	}
	return joinClauses(parts...)
}

func (b *baseVisitor) wheresSQL(wheres []nodes.Node) string {
	if len(wheres) == 0 {
		return ""
	}
	return "where " + b.listSQL(wheres, " and ")
}

func (b *baseVisitor) ordersSQL(orders []nodes.Node) string {
	if len(orders) == 0 {
		return ""
	}
	return "order by " + b.listSQL(orders, ", ")
}
