package visitors

import (
	"fmt"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// sqlServerComponents paginates with top for a bare limit and with
// offset/fetch once an offset is present.
var sqlServerComponents = []selectComponent{
	(*baseVisitor).componentExpressions,
	(*baseVisitor).componentTopColumns,
	(*baseVisitor).componentFrom,
	(*baseVisitor).componentJoins,
	(*baseVisitor).componentWheres,
	(*baseVisitor).componentGroups,
	(*baseVisitor).componentHavings,
	(*baseVisitor).componentOffsetOrders,
	(*baseVisitor).componentOffsetFetch,
	(*baseVisitor).componentRecursionLimit,
}

// SQLServerGrammar generates SQL Server-dialect SQL.
// Identifiers are quoted with brackets: [table].[column].
type SQLServerGrammar struct {
	*baseVisitor
}

// NewSQLServerGrammar creates a SQLServerGrammar ready for use. Pass
// WithLegacyOffset to paginate with row_number().
func NewSQLServerGrammar(opts ...Option) *SQLServerGrammar {
	v := &SQLServerGrammar{}
	v.baseVisitor = newBaseVisitor(v, quoting.Bracket, sqlServerComponents)
	v.applyOptions(opts)
	return v
}

func (v *SQLServerGrammar) Driver() string { return DriverSQLServer }

// RecursiveKeyword is always empty; SQL Server infers recursion.
func (v *SQLServerGrammar) RecursiveKeyword([]*nodes.Expression) string { return "" }

// CompileRecursionLimit renders option (maxrecursion n).
func (v *SQLServerGrammar) CompileRecursionLimit(limit *int) string {
	if limit == nil {
		return ""
	}
	return fmt.Sprintf("option (maxrecursion %d)", *limit)
}

func (v *SQLServerGrammar) wrapUnion(sql string) string {
	return "select * from (" + sql + ") as " + v.quoteIdent("temp_table")
}

func (v *SQLServerGrammar) paginate(limit, offset nodes.Node) string {
	if offset == nil && limit != nil {
		offset = nodes.Literal(0)
	}
	return v.fetchPaginate(limit, offset)
}

func (v *SQLServerGrammar) statementSQL(n *nodes.SelectCore) string {
	if v.legacyOffset && hasOffset(n.Offset) {
		return v.rowNumberSQL(n)
	}
	return v.baseVisitor.statementSQL(n)
}

// rowNumberSQL paginates for servers without offset/fetch:
//
//	with ... select * from (select *, row_number() over (order by ...) as row_num from ...)
//	as temp_table where row_num between s and e order by row_num
func (v *SQLServerGrammar) rowNumberSQL(n *nodes.SelectCore) string {
	columns := v.in(bindings.Select, func() string {
		orders := v.ordersSQL(n.Orders)
		if orders == "" {
			orders = "order by (select 0)"
		}
		return v.columnsSQL(n, "") + ", row_number() over (" + orders + ") as row_num"
	})
	inner := joinClauses(
		columns,
		v.componentFrom(n),
		v.componentJoins(n),
		v.componentWheres(n),
		v.componentGroups(n),
		v.componentHavings(n),
	)

	offset, _ := intValue(n.Offset)
	constraint := fmt.Sprintf(">= %d", offset+1)
	if limit, ok := intValue(n.Limit); ok {
		constraint = fmt.Sprintf("between %d and %d", offset+1, offset+limit)
	}

	return joinClauses(
		v.componentExpressions(n),
		"select * from ("+inner+") as temp_table where row_num "+constraint+" order by row_num",
		v.componentRecursionLimit(n),
	)
}

// updateSQL renders joined updates as
//
//	update alias set ... from t joins [where ...]
func (v *SQLServerGrammar) updateSQL(n *nodes.UpdateStatement) string {
	q := n.Query
	if len(q.Joins) == 0 {
		return v.baseVisitor.updateSQL(n)
	}
	return joinClauses(
		"update "+v.qualifierName(q.From),
		"set "+v.assignmentsSQL(n.Assignments),
		"from "+q.From.Accept(v),
		v.joinsSQL(q.Joins),
		v.wheresSQL(q.Wheres),
	)
}

// deleteSQL honours a limit with delete top (n), joined deletes included:
//
//	delete top (n) alias from t joins [where ...]
func (v *SQLServerGrammar) deleteSQL(n *nodes.DeleteStatement) string {
	q := n.Query
	if q.Limit == nil {
		return v.baseVisitor.deleteSQL(n)
	}
	top := "delete top (" + v.countSQL(q.Limit) + ") "
	if len(q.Joins) > 0 {
		return joinClauses(
			top+v.qualifierName(q.From),
			"from "+q.From.Accept(v),
			v.joinsSQL(q.Joins),
			v.wheresSQL(q.Wheres),
		)
	}
	return joinClauses(top+"from "+q.From.Accept(v), v.wheresSQL(q.Wheres))
}

// hasOffset reports whether offset skips any rows.
func hasOffset(offset nodes.Node) bool {
	if offset == nil {
		return false
	}
	if v, ok := intValue(offset); ok {
		return v > 0
	}
	return true
}

// componentTopColumns renders select top n when a limit has no offset.
func (b *baseVisitor) componentTopColumns(n *nodes.SelectCore) string {
	return b.in(bindings.Select, func() string {
		if n.Limit != nil && !hasOffset(n.Offset) {
			return b.columnsSQL(n, "top "+b.countSQL(n.Limit))
		}
		return b.columnsSQL(n, "")
	})
}

// componentOffsetOrders synthesizes an ordering when offset/fetch needs
// one and the query has none.
func (b *baseVisitor) componentOffsetOrders(n *nodes.SelectCore) string {
	if len(n.Orders) == 0 && hasOffset(n.Offset) {
		return "order by (select 0)"
	}
	return b.componentOrders(n)
}

func (b *baseVisitor) componentOffsetFetch(n *nodes.SelectCore) string {
	if !hasOffset(n.Offset) {
		return ""
	}
	return b.in(bindings.Order, func() string { return b.fetchPaginate(n.Limit, n.Offset) })
}
