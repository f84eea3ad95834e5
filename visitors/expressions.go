package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/withbee/nodes"
)

// CompileExpressions renders
//
//	with [recursive ]name [(cols) ]as [[not ]materialized ](query)[cycle], ...
//
// in registration order, or "" for an empty list.
func (b *baseVisitor) CompileExpressions(exprs []*nodes.Expression) string {
	if len(exprs) == 0 {
		return ""
	}

	statements := make([]string, len(exprs))
	for i, e := range exprs {
		var sb strings.Builder
		sb.WriteString(b.quoteTable(e.Name))
		sb.WriteString(" ")
		if len(e.Columns) > 0 {
			sb.WriteString("(")
			sb.WriteString(b.columnize(e.Columns))
			sb.WriteString(") ")
		}
		sb.WriteString("as ")
		switch e.Materialized {
		case nodes.Materialized:
			sb.WriteString("materialized ")
		case nodes.NotMaterialized:
			sb.WriteString("not materialized ")
		}
		sb.WriteString("(")
		sb.WriteString(e.Query)
		sb.WriteString(")")
		sb.WriteString(b.outer.CompileCycle(e))
		statements[i] = sb.String()
	}

	return "with " + b.outer.RecursiveKeyword(exprs) + strings.Join(statements, ", ")
}

// RecursiveKeyword returns "recursive " if any expression is recursive.
func (b *baseVisitor) RecursiveKeyword(exprs []*nodes.Expression) string {
	for _, e := range exprs {
		if e.Recursive {
			return "recursive "
		}
	}
	return ""
}

// CompileCycle renders the standard cycle clause:
//
//	cycle cols set mark using path
func (b *baseVisitor) CompileCycle(e *nodes.Expression) string {
	if e.Cycle == nil {
		return ""
	}
	return fmt.Sprintf(" cycle %s set %s using %s",
		b.columnize(e.Cycle.Columns),
		b.quoteIdent(cycleMark(e.Cycle)),
		b.quoteIdent(cyclePath(e.Cycle)))
}

// CompileRecursionLimit renders nothing; only SQL Server has a hint.
func (b *baseVisitor) CompileRecursionLimit(limit *int) string {
	return ""
}

func cycleMark(c *nodes.CycleSpec) string {
	if c.MarkColumn == "" {
		return nodes.DefaultCycleMarkColumn
	}
	return c.MarkColumn
}

func cyclePath(c *nodes.CycleSpec) string {
	if c.PathColumn == "" {
		return nodes.DefaultCyclePathColumn
	}
	return c.PathColumn
}
