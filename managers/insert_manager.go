package managers

import (
	"context"

	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/plugins"
	"github.com/bawdo/withbee/visitors"
)

// InsertManager provides a fluent API for building plain INSERT
// statements. Inserts driven by common table expressions go through
// SelectManager.InsertUsing instead.
type InsertManager struct {
	treeManager
	Statement *nodes.InsertStatement

	grammar visitors.Grammar
	conn    Connection
}

// NewInsertManager creates a new InsertManager targeting the given table.
func NewInsertManager(g visitors.Grammar, into nodes.Node) *InsertManager {
	return &InsertManager{
		Statement: &nodes.InsertStatement{Into: into},
		grammar:   g,
	}
}

// Insert creates an InsertManager bound to the same grammar and
// connection as m, targeting m's table.
func (m *SelectManager) Insert() *InsertManager {
	im := NewInsertManager(m.grammar, m.Core.From)
	im.conn = m.conn
	im.transformers = append(im.transformers, m.transformers...)
	return im
}

// Columns sets the column list for the INSERT statement.
func (m *InsertManager) Columns(cols ...string) *InsertManager {
	m.Statement.Columns = cols
	return m
}

// Values appends a row of values to the INSERT statement.
// Each call to Values adds one row. Plain Go values are bound;
// nodes pass through unchanged.
func (m *InsertManager) Values(vals ...any) *InsertManager {
	row := make([]nodes.Node, len(vals))
	for i, v := range vals {
		if n, ok := v.(nodes.Node); ok {
			row[i] = n
			continue
		}
		row[i] = nodes.Literal(v)
	}
	m.Statement.Values = append(m.Statement.Values, row)
	return m
}

// Use registers a transformer plugin.
func (m *InsertManager) Use(t plugins.Transformer) *InsertManager {
	m.addTransformer(t)
	return m
}

// ToSQL applies transformers and generates SQL with its bindings.
func (m *InsertManager) ToSQL() (string, []any, error) {
	stmt, err := m.transformInsert(m.cloneStatement())
	if err != nil {
		return "", nil, err
	}
	sql, args := m.grammar.CompileInsert(stmt)
	return sql, args, nil
}

// Exec compiles and executes the insert, returning the affected rows.
func (m *InsertManager) Exec(ctx context.Context) (int64, error) {
	sql, args, err := m.ToSQL()
	if err != nil {
		return 0, err
	}
	if m.conn == nil {
		return 0, ErrNoConnection
	}
	return m.conn.ExecuteWrite(ctx, sql, args)
}

func (m *InsertManager) cloneStatement() *nodes.InsertStatement {
	values := make([][]nodes.Node, len(m.Statement.Values))
	for i, row := range m.Statement.Values {
		values[i] = append([]nodes.Node(nil), row...)
	}
	return &nodes.InsertStatement{
		Into:    m.Statement.Into,
		Columns: append([]string(nil), m.Statement.Columns...),
		Values:  values,
	}
}
