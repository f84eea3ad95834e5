package managers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

var (
	// ErrInvalidSubquery reports a query argument that is neither SQL
	// text, a *SelectManager nor a func(*SelectManager).
	ErrInvalidSubquery = errors.New("invalid subquery")
	// ErrNoConnection reports an execution attempted on a manager built
	// without a connection.
	ErrNoConnection = errors.New("query has no connection")
	// ErrUpdateFromUnsupported reports UpdateFrom on a dialect without an
	// update ... from form.
	ErrUpdateFromUnsupported = errors.New("update from is not supported")
	// ErrNoTable reports a write statement without a target table.
	ErrNoTable = errors.New("query has no table")
	// ErrNoAssignments reports an update without values.
	ErrNoAssignments = errors.New("update has no values")
)

// Connection executes compiled statements. Placeholders arrive as ?; the
// connection adapts them to its driver.
type Connection interface {
	ExecuteRead(ctx context.Context, query string, args []any) (*sql.Rows, error)
	ExecuteWrite(ctx context.Context, query string, args []any) (int64, error)
	DriverName() string
}

// NewQuery creates a SelectManager bound to conn, compiling with the
// grammar registered for conn's driver.
func NewQuery(conn Connection, from nodes.Node, opts ...visitors.Option) (*SelectManager, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}
	g, err := visitors.ForDriver(conn.DriverName(), opts...)
	if err != nil {
		return nil, fmt.Errorf("new query: %w", err)
	}
	m := NewSelectManager(g, from)
	m.conn = conn
	return m, nil
}

// Table is shorthand for NewQuery(conn, nodes.NewTable(name)).
func Table(conn Connection, name string, opts ...visitors.Option) (*SelectManager, error) {
	return NewQuery(conn, nodes.NewTable(name), opts...)
}

// Get executes the select and returns its rows.
func (m *SelectManager) Get(ctx context.Context) (*sql.Rows, error) {
	query, args, err := m.ToSQL()
	if err != nil {
		return nil, err
	}
	if m.conn == nil {
		return nil, ErrNoConnection
	}
	return m.conn.ExecuteRead(ctx, query, args)
}

// InsertUsing inserts the rows selected by query into the manager's
// table, prefixed by the manager's expressions.
func (m *SelectManager) InsertUsing(ctx context.Context, columns []string, query any) (int64, error) {
	stmt, args, err := m.ToInsertUsingSQL(columns, query)
	if err != nil {
		return 0, err
	}
	return m.write(ctx, stmt, args)
}

// Update updates the rows matched by the manager, prefixed by its
// expressions.
func (m *SelectManager) Update(ctx context.Context, values ...*nodes.AssignmentNode) (int64, error) {
	stmt, args, err := m.ToUpdateSQL(values...)
	if err != nil {
		return 0, err
	}
	return m.write(ctx, stmt, args)
}

// UpdateFrom updates using the joined tables as an update ... from
// source. Only Postgres supports it.
func (m *SelectManager) UpdateFrom(ctx context.Context, values ...*nodes.AssignmentNode) (int64, error) {
	stmt, args, err := m.ToUpdateFromSQL(values...)
	if err != nil {
		return 0, err
	}
	return m.write(ctx, stmt, args)
}

// Delete deletes the rows matched by the manager, prefixed by its
// expressions.
func (m *SelectManager) Delete(ctx context.Context) (int64, error) {
	stmt, args, err := m.ToDeleteSQL()
	if err != nil {
		return 0, err
	}
	return m.write(ctx, stmt, args)
}

// ToInsertUsingSQL compiles InsertUsing without executing it.
func (m *SelectManager) ToInsertUsingSQL(columns []string, query any) (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	if m.Core.From == nil {
		return "", nil, fmt.Errorf("insert using: %w", ErrNoTable)
	}
	source, sourceArgs, err := m.resolve(query, m.Core.ExpressionNames(), false)
	if err != nil {
		return "", nil, fmt.Errorf("insert using: %w", err)
	}

	stmt := &nodes.InsertStatement{
		Into:     m.Core.From,
		Columns:  append([]string(nil), columns...),
		Select:   nodes.NewBoundSqlLiteral(source, sourceArgs...),
		With:     m.Core.Clone().With,
		Bindings: m.Core.Bindings.Clone(),
	}
	if stmt, err = m.transformInsert(stmt); err != nil {
		return "", nil, err
	}
	sql, args := m.grammar.CompileInsertUsing(stmt)
	return sql, args, nil
}

// ToUpdateSQL compiles Update without executing it.
func (m *SelectManager) ToUpdateSQL(values ...*nodes.AssignmentNode) (string, []any, error) {
	stmt, err := m.updateStatement(values)
	if err != nil {
		return "", nil, err
	}
	sql, args := m.grammar.CompileUpdate(stmt)
	return sql, args, nil
}

// ToUpdateFromSQL compiles UpdateFrom without executing it.
func (m *SelectManager) ToUpdateFromSQL(values ...*nodes.AssignmentNode) (string, []any, error) {
	uf, ok := m.grammar.(visitors.UpdateFromCompiler)
	if !ok {
		return "", nil, fmt.Errorf("%w for driver %s", ErrUpdateFromUnsupported, m.grammar.Driver())
	}
	stmt, err := m.updateStatement(values)
	if err != nil {
		return "", nil, err
	}
	sql, args := uf.CompileUpdateFrom(stmt)
	return sql, args, nil
}

// ToDeleteSQL compiles Delete without executing it.
func (m *SelectManager) ToDeleteSQL() (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	if m.Core.From == nil {
		return "", nil, fmt.Errorf("delete: %w", ErrNoTable)
	}
	stmt, err := m.transformDelete(&nodes.DeleteStatement{Query: m.Core.Clone()})
	if err != nil {
		return "", nil, err
	}
	sql, args := m.grammar.CompileDelete(stmt)
	return sql, args, nil
}

func (m *SelectManager) updateStatement(values []*nodes.AssignmentNode) (*nodes.UpdateStatement, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.Core.From == nil {
		return nil, fmt.Errorf("update: %w", ErrNoTable)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("update: %w", ErrNoAssignments)
	}
	return m.transformUpdate(&nodes.UpdateStatement{
		Query:       m.Core.Clone(),
		Assignments: append([]*nodes.AssignmentNode(nil), values...),
	})
}

func (m *SelectManager) write(ctx context.Context, stmt string, args []any) (int64, error) {
	if m.conn == nil {
		return 0, ErrNoConnection
	}
	return m.conn.ExecuteWrite(ctx, stmt, args)
}

// Set builds an assignment of val to the named column.
func Set(column string, val any) *nodes.AssignmentNode {
	return nodes.Set(nodes.Column(column), val)
}
