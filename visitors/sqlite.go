package visitors

import (
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// SQLiteGrammar generates SQLite-dialect SQL.
// Identifiers are quoted with double quotes: "table"."column".
type SQLiteGrammar struct {
	*baseVisitor
}

// NewSQLiteGrammar creates a SQLiteGrammar ready for use.
func NewSQLiteGrammar(opts ...Option) *SQLiteGrammar {
	v := &SQLiteGrammar{}
	v.baseVisitor = newBaseVisitor(v, quoting.DoubleQuote, standardComponents)
	v.applyOptions(opts)
	return v
}

func (v *SQLiteGrammar) Driver() string { return DriverSQLite }

// wrapUnion turns a union operand into a derived table; SQLite rejects
// parenthesized selects.
func (v *SQLiteGrammar) wrapUnion(sql string) string {
	return "select * from (" + sql + ")"
}

// unionBranch leaves operands bare inside an expression body, where a
// recursive reference must not be hidden in a derived table.
func (v *SQLiteGrammar) unionBranch(keyword, sql string, body bool) string {
	if body {
		return keyword + " " + sql
	}
	return keyword + " " + v.wrapUnion(sql)
}

// CompileUpdate narrows joined or limited updates through a rowid
// subselect that carries the WITH clause.
func (v *SQLiteGrammar) CompileUpdate(stmt *nodes.UpdateStatement) (string, []any) {
	if nodes.HasJoinsOrLimit(stmt.Query) {
		return v.rowIDUpdate(stmt, "rowid")
	}
	return v.baseVisitor.CompileUpdate(stmt)
}

// CompileDelete narrows joined or limited deletes through a rowid
// subselect that carries the WITH clause.
func (v *SQLiteGrammar) CompileDelete(stmt *nodes.DeleteStatement) (string, []any) {
	if nodes.HasJoinsOrLimit(stmt.Query) {
		return v.rowIDDelete(stmt, "rowid")
	}
	return v.baseVisitor.CompileDelete(stmt)
}
