package visitors

import (
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// MySQLGrammar generates MySQL-dialect SQL.
// Identifiers are quoted with backticks: `table`.`column`.
type MySQLGrammar struct {
	*baseVisitor
}

// NewMySQLGrammar creates a MySQLGrammar ready for use.
// Parameterized mode is enabled by default for SQL injection protection.
func NewMySQLGrammar(opts ...Option) *MySQLGrammar {
	v := &MySQLGrammar{}
	v.baseVisitor = newMySQLFamilyBase(v)
	v.applyOptions(opts)
	return v
}

func newMySQLFamilyBase(outer dialect) *baseVisitor {
	b := newBaseVisitor(outer, quoting.Backtick, standardComponents)
	b.withAfterTarget = true
	return b
}

func (v *MySQLGrammar) Driver() string { return DriverMySQL }

// CompileCycle renders the abbreviated form MySQL understands:
//
//	cycle cols restrict
func (v *MySQLGrammar) CompileCycle(e *nodes.Expression) string {
	if e.Cycle == nil {
		return ""
	}
	return " cycle " + v.columnize(e.Cycle.Columns) + " restrict"
}

func (v *MySQLGrammar) updateSQL(n *nodes.UpdateStatement) string {
	return v.limitedUpdateSQL(n, true)
}

func (v *MySQLGrammar) deleteSQL(n *nodes.DeleteStatement) string {
	return v.limitedDeleteSQL(n, true)
}

// limitedUpdateSQL renders the MySQL family update. Joined updates take
// no order or limit.
func (b *baseVisitor) limitedUpdateSQL(n *nodes.UpdateStatement, withOrder bool) string {
	q := n.Query
	if len(q.Joins) > 0 {
		return b.updateSQL(n)
	}
	return joinClauses(
		"update "+q.From.Accept(b.outer),
		"set "+b.assignmentsSQL(n.Assignments),
		b.wheresSQL(q.Wheres),
		b.writeOrderLimit(q, withOrder),
	)
}

// limitedDeleteSQL renders the MySQL family delete.
func (b *baseVisitor) limitedDeleteSQL(n *nodes.DeleteStatement, withOrder bool) string {
	q := n.Query
	if len(q.Joins) > 0 {
		return b.deleteSQL(n)
	}
	return joinClauses(
		"delete from "+q.From.Accept(b.outer),
		b.wheresSQL(q.Wheres),
		b.writeOrderLimit(q, withOrder),
	)
}

func (b *baseVisitor) writeOrderLimit(q *nodes.SelectCore, withOrder bool) string {
	var orders string
	if withOrder {
		orders = b.ordersSQL(q.Orders)
	}
	var limit string
	if q.Limit != nil {
		limit = "limit " + b.countSQL(q.Limit)
	}
	return joinClauses(orders, limit)
}

// MariaDBGrammar generates MariaDB-dialect SQL. It differs from MySQL in
// supporting the standard cycle clause.
type MariaDBGrammar struct {
	*MySQLGrammar
}

// NewMariaDBGrammar creates a MariaDBGrammar ready for use.
func NewMariaDBGrammar(opts ...Option) *MariaDBGrammar {
	v := &MariaDBGrammar{MySQLGrammar: &MySQLGrammar{}}
	v.baseVisitor = newMySQLFamilyBase(v)
	v.applyOptions(opts)
	return v
}

func (v *MariaDBGrammar) Driver() string { return DriverMariaDB }

func (v *MariaDBGrammar) CompileCycle(e *nodes.Expression) string {
	return v.baseVisitor.CompileCycle(e)
}

// SingleStoreGrammar generates SingleStore-dialect SQL. It can be told
// to drop order by from updates and deletes, which SingleStore rejects
// on some table types.
type SingleStoreGrammar struct {
	*MySQLGrammar
}

// NewSingleStoreGrammar creates a SingleStoreGrammar ready for use.
func NewSingleStoreGrammar(opts ...Option) *SingleStoreGrammar {
	v := &SingleStoreGrammar{MySQLGrammar: &MySQLGrammar{}}
	v.baseVisitor = newMySQLFamilyBase(v)
	v.applyOptions(opts)
	return v
}

func (v *SingleStoreGrammar) Driver() string { return DriverSingleStore }

func (v *SingleStoreGrammar) updateSQL(n *nodes.UpdateStatement) string {
	return v.limitedUpdateSQL(n, !v.ignoreOrderInUpdates)
}

func (v *SingleStoreGrammar) deleteSQL(n *nodes.DeleteStatement) string {
	return v.limitedDeleteSQL(n, !v.ignoreOrderInDeletes)
}
