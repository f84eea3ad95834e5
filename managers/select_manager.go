// Package managers provides the fluent query builder. A SelectManager
// accumulates a SELECT core together with its common table expressions
// and compiles, or executes, the select and the write statements derived
// from it through a dialect grammar.
package managers

import (
	"fmt"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/plugins"
	"github.com/bawdo/withbee/visitors"
)

// SelectManager provides a fluent API for building SELECT queries.
// It wraps a SelectCore, applies transformer plugins before SQL
// generation and compiles through the grammar it was created with.
//
// A SelectManager is not safe for concurrent use.
type SelectManager struct {
	treeManager
	Core *nodes.SelectCore

	grammar visitors.Grammar
	conn    Connection
	err     error
}

// NewSelectManager creates a SelectManager compiling with g. If from is
// nil, the FROM clause is left unset.
func NewSelectManager(g visitors.Grammar, from nodes.Node) *SelectManager {
	return &SelectManager{
		Core:    &nodes.SelectCore{From: from, Bindings: bindings.New()},
		grammar: g,
	}
}

// Grammar returns the grammar the manager compiles with.
func (m *SelectManager) Grammar() visitors.Grammar {
	return m.grammar
}

// Err returns the validation failures accumulated by fluent calls.
func (m *SelectManager) Err() error {
	return m.err
}

// Use registers a transformer plugin.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// Select sets the projection list, replacing any existing projections.
func (m *SelectManager) Select(projections ...nodes.Node) *SelectManager {
	m.Core.Projections = projections
	return m
}

// SelectRaw appends a raw projection with optional bound values.
func (m *SelectManager) SelectRaw(raw string, binds ...any) *SelectManager {
	m.Core.Projections = append(m.Core.Projections, nodes.NewBoundSqlLiteral(raw, binds...))
	return m
}

// Distinct enables or disables the DISTINCT modifier on the SELECT clause.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	m.Core.Distinct = len(on) == 0 || on[0]
	return m
}

// From sets or changes the FROM source.
func (m *SelectManager) From(table nodes.Node) *SelectManager {
	m.Core.From = table
	return m
}

// Where appends one or more conditions to the WHERE clause.
// Multiple calls to Where are combined with AND.
func (m *SelectManager) Where(conditions ...nodes.Node) *SelectManager {
	m.Core.Wheres = append(m.Core.Wheres, conditions...)
	return m
}

// WhereRaw appends a raw condition with optional bound values.
func (m *SelectManager) WhereRaw(raw string, binds ...any) *SelectManager {
	return m.Where(nodes.NewBoundSqlLiteral(raw, binds...))
}

// Join adds a join to the query and returns a JoinContext for specifying
// the ON condition. The default join type is InnerJoin.
func (m *SelectManager) Join(table nodes.Node, joinTypes ...nodes.JoinType) *JoinContext {
	jt := nodes.InnerJoin
	if len(joinTypes) > 0 {
		jt = joinTypes[0]
	}
	join := &nodes.JoinNode{Right: table, Type: jt}
	m.Core.Joins = append(m.Core.Joins, join)
	return &JoinContext{manager: m, join: join}
}

// OuterJoin is a convenience for Join with LeftOuterJoin type.
func (m *SelectManager) OuterJoin(table nodes.Node) *JoinContext {
	return m.Join(table, nodes.LeftOuterJoin)
}

// CrossJoin adds a cross join (no ON clause).
func (m *SelectManager) CrossJoin(table nodes.Node) *SelectManager {
	m.Core.Joins = append(m.Core.Joins, &nodes.JoinNode{Right: table, Type: nodes.CrossJoin})
	return m
}

// StringJoin adds a raw SQL join fragment.
//
// SECURITY: The raw string is injected verbatim into SQL output.
// Never pass user-controlled input to this method.
func (m *SelectManager) StringJoin(raw string) *SelectManager {
	m.Core.Joins = append(m.Core.Joins, &nodes.JoinNode{Right: nodes.NewSqlLiteral(raw), Type: nodes.StringJoin})
	return m
}

// Group appends one or more expressions to the GROUP BY clause.
func (m *SelectManager) Group(columns ...nodes.Node) *SelectManager {
	m.Core.Groups = append(m.Core.Groups, columns...)
	return m
}

// Having appends one or more conditions to the HAVING clause.
func (m *SelectManager) Having(conditions ...nodes.Node) *SelectManager {
	m.Core.Havings = append(m.Core.Havings, conditions...)
	return m
}

// Order appends to the ORDER BY clause. Once union branches exist the
// orderings apply to the whole union.
func (m *SelectManager) Order(orderings ...nodes.Node) *SelectManager {
	if len(m.Core.Unions) > 0 {
		m.Core.UnionOrders = append(m.Core.UnionOrders, orderings...)
		return m
	}
	m.Core.Orders = append(m.Core.Orders, orderings...)
	return m
}

// Limit sets the LIMIT value, of the whole union once branches exist.
func (m *SelectManager) Limit(n int) *SelectManager {
	if len(m.Core.Unions) > 0 {
		m.Core.UnionLimit = nodes.Literal(n)
		return m
	}
	m.Core.Limit = nodes.Literal(n)
	return m
}

// Offset sets the OFFSET value, of the whole union once branches exist.
func (m *SelectManager) Offset(n int) *SelectManager {
	if len(m.Core.Unions) > 0 {
		m.Core.UnionOffset = nodes.Literal(n)
		return m
	}
	m.Core.Offset = nodes.Literal(n)
	return m
}

// Take is an alias for Limit.
func (m *SelectManager) Take(n int) *SelectManager {
	return m.Limit(n)
}

// Union appends other as a union branch. Expressions registered after
// the first branch prefix the whole union.
func (m *SelectManager) Union(other *SelectManager) *SelectManager {
	return m.union(other, false)
}

// UnionAll appends other as a union all branch.
func (m *SelectManager) UnionAll(other *SelectManager) *SelectManager {
	return m.union(other, true)
}

func (m *SelectManager) union(other *SelectManager, all bool) *SelectManager {
	if other == nil {
		m.err = joinErr(m.err, fmt.Errorf("union: %w: nil query", ErrInvalidSubquery))
		return m
	}
	m.Core.Unions = append(m.Core.Unions, &nodes.UnionNode{Query: other, All: all})
	return m
}

// Accept renders the manager's core, so a SelectManager can be used as a
// subquery node (for example with InQuery or Exists).
func (m *SelectManager) Accept(v nodes.Visitor) string {
	return m.Core.Accept(v)
}

// As wraps the query as a named derived table.
func (m *SelectManager) As(name string) *nodes.TableAlias {
	return &nodes.TableAlias{Relation: m, AliasName: name}
}

// ToSQL applies transformers and compiles the select with its bindings.
func (m *SelectManager) ToSQL() (string, []any, error) {
	core, err := m.prepare()
	if err != nil {
		return "", nil, err
	}
	sql, args := m.grammar.CompileSelect(core)
	return sql, args, nil
}

// prepare returns a transformed copy of the core, with union branches
// built by other managers replaced by their own transformed cores.
func (m *SelectManager) prepare() (*nodes.SelectCore, error) {
	return m.prepareIn(nil)
}

// prepareIn prepares a core nested where the expressions named in scope
// are visible. Union branches see scope plus the expressions wrapping the
// whole union.
func (m *SelectManager) prepareIn(scope []string) (*nodes.SelectCore, error) {
	if m.err != nil {
		return nil, m.err
	}
	core := m.Core.Clone()
	core.Enclosing = append(core.Enclosing, scope...)
	inner := append([]string(nil), core.Enclosing...)
	for _, e := range core.UnionWith.ExpressionList() {
		inner = append(inner, e.Name)
	}
	for i, u := range core.Unions {
		sub, ok := u.Query.(*SelectManager)
		if !ok {
			continue
		}
		branch, err := sub.prepareIn(inner)
		if err != nil {
			return nil, fmt.Errorf("union branch %d: %w", i+1, err)
		}
		core.Unions[i] = &nodes.UnionNode{Query: branch, All: u.All}
	}
	return m.transformSelect(core)
}

// fork returns an empty manager sharing the grammar and transformers.
func (m *SelectManager) fork() *SelectManager {
	sub := NewSelectManager(m.grammar, nil)
	sub.transformers = append(sub.transformers, m.transformers...)
	sub.conn = m.conn
	return sub
}
