package visitors

import (
	"strings"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/nodes"
)

// Write statements record their own values in the Values bucket in
// placeholder order; the expression bindings are prepended afterwards.

// CompileInsert renders insert ... values without a WITH clause.
func (b *baseVisitor) CompileInsert(stmt *nodes.InsertStatement) (string, []any) {
	b.begin(nil, bindings.Values)
	sql := stmt.Accept(b.outer)
	return sql, b.ledger.Get(bindings.Values)
}

// CompileInsertUsing renders
//
//	with ... insert into t (cols) query [recursion limit]
//
// or, for dialects built withAfterTarget,
//
//	insert into t (cols) with ... query
func (b *baseVisitor) CompileInsertUsing(stmt *nodes.InsertStatement) (string, []any) {
	b.begin(nil, bindings.Values)
	prologue := b.outer.CompileExpressions(stmt.With.ExpressionList())

	var sql string
	if b.withAfterTarget {
		sql = joinClauses(b.insertTarget(stmt), prologue, b.insertSource(stmt))
	} else {
		sql = joinClauses(prologue, stmt.Accept(b.outer), b.outer.CompileRecursionLimit(stmt.With.Limit()))
	}
	return sql, bindings.PrepareForInsertUsing(stmt.Bindings, b.ledger.Get(bindings.Values))
}

// CompileUpdate renders the dialect's update prefixed with the query's
// WITH clause.
func (b *baseVisitor) CompileUpdate(stmt *nodes.UpdateStatement) (string, []any) {
	b.begin(nil, bindings.Values)
	sql := joinClauses(b.outer.CompileExpressions(stmt.Query.With.ExpressionList()), stmt.Accept(b.outer))
	return sql, bindings.PrepareForUpdate(stmt.Query.Bindings, b.ledger.Get(bindings.Values))
}

// CompileDelete renders the dialect's delete prefixed with the query's
// WITH clause.
func (b *baseVisitor) CompileDelete(stmt *nodes.DeleteStatement) (string, []any) {
	b.begin(nil, bindings.Values)
	sql := joinClauses(b.outer.CompileExpressions(stmt.Query.With.ExpressionList()), stmt.Accept(b.outer))
	return sql, bindings.PrepareForDelete(stmt.Query.Bindings, b.ledger.Get(bindings.Values))
}

func (b *baseVisitor) VisitInsertStatement(n *nodes.InsertStatement) string {
	target := b.insertTarget(n)
	if n.Select != nil {
		return target + " " + b.insertSource(n)
	}
	if len(n.Values) == 0 {
		return target + " default values"
	}
	rows := make([]string, len(n.Values))
	for i, row := range n.Values {
		rows[i] = "(" + b.listSQL(row, ", ") + ")"
	}
	return target + " values " + strings.Join(rows, ", ")
}

func (b *baseVisitor) insertTarget(n *nodes.InsertStatement) string {
	sql := "insert into " + n.Into.Accept(b.outer)
	if len(n.Columns) > 0 {
		sql += " (" + b.columnize(n.Columns) + ")"
	}
	return sql
}

func (b *baseVisitor) insertSource(n *nodes.InsertStatement) string {
	if n.Select == nil {
		return ""
	}
	return n.Select.Accept(b.outer)
}

func (b *baseVisitor) VisitUpdateStatement(n *nodes.UpdateStatement) string {
	return b.outer.updateSQL(n)
}

func (b *baseVisitor) VisitDeleteStatement(n *nodes.DeleteStatement) string {
	return b.outer.deleteSQL(n)
}

// updateSQL renders
//
//	update t [joins] set ... [where ...]
func (b *baseVisitor) updateSQL(n *nodes.UpdateStatement) string {
	q := n.Query
	return joinClauses(
		"update "+q.From.Accept(b.outer),
		b.joinsSQL(q.Joins),
		"set "+b.assignmentsSQL(n.Assignments),
		b.wheresSQL(q.Wheres),
	)
}

// deleteSQL renders
//
//	delete from t [where ...]
//	delete alias from t joins [where ...]
func (b *baseVisitor) deleteSQL(n *nodes.DeleteStatement) string {
	q := n.Query
	if len(q.Joins) > 0 {
		return joinClauses(
			"delete "+b.qualifierName(q.From),
			"from "+q.From.Accept(b.outer),
			b.joinsSQL(q.Joins),
			b.wheresSQL(q.Wheres),
		)
	}
	return joinClauses("delete from "+q.From.Accept(b.outer), b.wheresSQL(q.Wheres))
}

func (b *baseVisitor) assignmentsSQL(assigns []*nodes.AssignmentNode) string {
	parts := make([]string, len(assigns))
	for i, a := range assigns {
		parts[i] = a.Accept(b.outer)
	}
	return strings.Join(parts, ", ")
}

// rowIDUpdate rewrites an update whose target is narrowed by joins or a
// limit as
//
//	update t set ... where rowid in (select t.rowid from ...)
//
// The nested select carries the WITH clause, so its values follow the
// assignment values.
func (b *baseVisitor) rowIDUpdate(n *nodes.UpdateStatement, rowID string) (string, []any) {
	b.begin(nil, bindings.Values)
	q := n.Query
	table := q.From.Accept(b.outer)
	sets := b.assignmentsSQL(n.Assignments)
	sql := joinClauses(
		"update "+table,
		"set "+sets,
		"where "+b.quoteIdent(rowID)+" in ("+b.rowIDSelect(q, rowID)+")",
	)
	return sql, b.ledger.Get(bindings.Values)
}

// rowIDDelete is the delete counterpart of rowIDUpdate.
func (b *baseVisitor) rowIDDelete(n *nodes.DeleteStatement, rowID string) (string, []any) {
	b.begin(nil, bindings.Values)
	q := n.Query
	table := q.From.Accept(b.outer)
	sql := joinClauses(
		"delete from "+table,
		"where "+b.quoteIdent(rowID)+" in ("+b.rowIDSelect(q, rowID)+")",
	)
	return sql, b.ledger.Get(bindings.Values)
}

func (b *baseVisitor) rowIDSelect(q *nodes.SelectCore, rowID string) string {
	sub := q.Clone()
	sub.Projections = []nodes.Node{nodes.NewAttribute(q.From, rowID)}
	return sub.Accept(b.outer)
}
