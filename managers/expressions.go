package managers

import (
	"errors"
	"fmt"

	"github.com/bawdo/withbee/nodes"
)

// ExpressionOption configures an expression at registration.
type ExpressionOption func(*nodes.Expression)

// Columns names the expression's columns explicitly.
func Columns(cols ...string) ExpressionOption {
	return func(e *nodes.Expression) {
		e.Columns = append([]string(nil), cols...)
	}
}

// Recursive marks the expression recursive.
func Recursive() ExpressionOption {
	return func(e *nodes.Expression) { e.Recursive = true }
}

// Materialized sets the materialization hint.
func Materialized(hint nodes.Materialization) ExpressionOption {
	return func(e *nodes.Expression) { e.Materialized = hint }
}

// Cycle attaches cycle detection. Empty mark and path columns fall back
// to nodes.DefaultCycleMarkColumn and nodes.DefaultCyclePathColumn.
func Cycle(spec nodes.CycleSpec) ExpressionOption {
	return func(e *nodes.Expression) {
		c := spec
		c.Columns = append([]string(nil), spec.Columns...)
		if c.MarkColumn == "" {
			c.MarkColumn = nodes.DefaultCycleMarkColumn
		}
		if c.PathColumn == "" {
			c.PathColumn = nodes.DefaultCyclePathColumn
		}
		e.Cycle = &c
	}
}

// MarkColumn renames the cycle mark column. It has no effect on an
// expression without cycle detection.
func MarkColumn(name string) ExpressionOption {
	return func(e *nodes.Expression) {
		if e.Cycle != nil {
			e.Cycle.MarkColumn = name
		}
	}
}

// PathColumn renames the cycle path column. It has no effect on an
// expression without cycle detection.
func PathColumn(name string) ExpressionOption {
	return func(e *nodes.Expression) {
		if e.Cycle != nil {
			e.Cycle.PathColumn = name
		}
	}
}

// WithExpression registers a common table expression named name. The
// query is SQL text, a *SelectManager, or a func(*SelectManager) that
// fills a fresh builder; it is resolved to SQL text and bindings
// immediately.
//
// Before any union branch exists the expression prefixes the statement
// itself; afterwards it prefixes the whole union. A query of any other
// kind records ErrInvalidSubquery on the manager and registers nothing.
//
// A builder body sees the expressions registered before it, and its own
// name when recursive, so plugins leave those references alone.
func (m *SelectManager) WithExpression(name string, query any, opts ...ExpressionOption) *SelectManager {
	e := &nodes.Expression{Name: name}
	for _, opt := range opts {
		opt(e)
	}

	scope := m.Core.ExpressionNames()
	if e.Recursive {
		scope = append(scope, name)
	}
	sql, args, err := m.resolve(query, scope, true)
	if err != nil {
		m.err = joinErr(m.err, fmt.Errorf("expression %q: %w", name, err))
		return m
	}
	e.Query, e.Bindings = sql, args

	target := m.Core.Target()
	w := m.Core.WithClauseFor(target)
	w.Expressions = append(w.Expressions, e)
	m.Core.Bindings.Add(target.Bucket(), args...)
	return m
}

// WithRecursiveExpression registers a recursive expression.
func (m *SelectManager) WithRecursiveExpression(name string, query any, opts ...ExpressionOption) *SelectManager {
	return m.WithExpression(name, query, append([]ExpressionOption{Recursive()}, opts...)...)
}

// WithRecursiveExpressionAndCycleDetection registers a recursive
// expression that detects cycles over cycleColumns. Use MarkColumn and
// PathColumn to rename the columns the engine emits.
func (m *SelectManager) WithRecursiveExpressionAndCycleDetection(name string, query any, cycleColumns []string, opts ...ExpressionOption) *SelectManager {
	base := []ExpressionOption{Recursive(), Cycle(nodes.CycleSpec{Columns: cycleColumns})}
	return m.WithExpression(name, query, append(base, opts...)...)
}

// WithMaterializedExpression registers an expression rendered as materialized.
func (m *SelectManager) WithMaterializedExpression(name string, query any, opts ...ExpressionOption) *SelectManager {
	return m.WithExpression(name, query, append([]ExpressionOption{Materialized(nodes.Materialized)}, opts...)...)
}

// WithNonMaterializedExpression registers an expression rendered as not materialized.
func (m *SelectManager) WithNonMaterializedExpression(name string, query any, opts ...ExpressionOption) *SelectManager {
	return m.WithExpression(name, query, append([]ExpressionOption{Materialized(nodes.NotMaterialized)}, opts...)...)
}

// RecursionLimit caps recursion for the statement, or for the whole union
// once branches exist. Only SQL Server renders it; pass
// nodes.UnlimitedRecursion to lift the cap.
func (m *SelectManager) RecursionLimit(n int) *SelectManager {
	w := m.Core.WithClauseFor(m.Core.Target())
	w.RecursionLimit = &n
	return m
}

// resolve turns a query argument into SQL text and bindings. Expression
// bodies are compiled with CompileExpressionBody, everything else as a
// standalone select. scope names the expressions visible to the query.
func (m *SelectManager) resolve(query any, scope []string, body bool) (string, []any, error) {
	var sub *SelectManager
	switch q := query.(type) {
	case string:
		return q, nil, nil
	case *SelectManager:
		if q == nil {
			return "", nil, fmt.Errorf("%w: nil *SelectManager", ErrInvalidSubquery)
		}
		sub = q
	case func(*SelectManager):
		if q == nil {
			return "", nil, fmt.Errorf("%w: nil builder func", ErrInvalidSubquery)
		}
		sub = m.fork()
		q(sub)
	default:
		return "", nil, fmt.Errorf("%w: got %T", ErrInvalidSubquery, query)
	}

	core, err := sub.prepareIn(scope)
	if err != nil {
		return "", nil, err
	}
	if body {
		sql, args := m.grammar.CompileExpressionBody(core)
		return sql, args, nil
	}
	sql, args := m.grammar.CompileSelect(core)
	return sql, args, nil
}

func joinErr(prev, err error) error {
	if prev == nil {
		return err
	}
	return errors.Join(prev, err)
}
