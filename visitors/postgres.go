package visitors

import (
	"strings"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// PostgresGrammar generates PostgreSQL-dialect SQL.
// Identifiers are quoted with double quotes: "table"."column".
type PostgresGrammar struct {
	*baseVisitor
}

// NewPostgresGrammar creates a PostgresGrammar ready for use.
func NewPostgresGrammar(opts ...Option) *PostgresGrammar {
	v := &PostgresGrammar{}
	v.baseVisitor = newBaseVisitor(v, quoting.DoubleQuote, standardComponents)
	v.applyOptions(opts)
	return v
}

func (v *PostgresGrammar) Driver() string { return DriverPostgres }

// CompileUpdate narrows joined or limited updates through a ctid
// subselect that carries the WITH clause.
func (v *PostgresGrammar) CompileUpdate(stmt *nodes.UpdateStatement) (string, []any) {
	if nodes.HasJoinsOrLimit(stmt.Query) {
		return v.rowIDUpdate(stmt, "ctid")
	}
	return v.baseVisitor.CompileUpdate(stmt)
}

// CompileDelete narrows joined or limited deletes through a ctid
// subselect that carries the WITH clause.
func (v *PostgresGrammar) CompileDelete(stmt *nodes.DeleteStatement) (string, []any) {
	if nodes.HasJoinsOrLimit(stmt.Query) {
		return v.rowIDDelete(stmt, "ctid")
	}
	return v.baseVisitor.CompileDelete(stmt)
}

// CompileUpdateFrom renders
//
//	with ... update t set ... from j1, j2 where <join conditions> and <wheres>
//
// Values follow placeholder order: expressions, assignments, joined
// sources, join conditions, then wheres.
func (v *PostgresGrammar) CompileUpdateFrom(stmt *nodes.UpdateStatement) (string, []any) {
	v.begin(nil, bindings.Values)
	q := stmt.Query

	update := "update " + q.From.Accept(v)
	sets := "set " + v.assignmentsSQL(stmt.Assignments)

	var from string
	var conds []string
	if len(q.Joins) > 0 {
		tables := make([]string, len(q.Joins))
		for i, j := range q.Joins {
			tables[i] = j.Right.Accept(v)
			if _, ok := j.Right.(*nodes.SelectCore); ok {
				tables[i] = "(" + tables[i] + ")"
			}
		}
		from = "from " + strings.Join(tables, ", ")
		for _, j := range q.Joins {
			if j.On != nil {
				conds = append(conds, j.On.Accept(v))
			}
		}
	}
	for _, w := range q.Wheres {
		conds = append(conds, w.Accept(v))
	}
	var where string
	if len(conds) > 0 {
		where = "where " + strings.Join(conds, " and ")
	}

	sql := joinClauses(v.CompileExpressions(q.With.ExpressionList()), update, sets, from, where)
	return sql, bindings.PrepareForUpdate(q.Bindings, v.ledger.Get(bindings.Values))
}
