// Package withbee provides a fluent SQL query builder with common table
// expression support across mysql, mariadb, pgsql, sqlite, sqlsrv,
// oracle, singlestore and firebird.
//
// This package re-exports commonly used types and functions from
// subpackages for convenience. Advanced users can import subpackages
// directly:
//   - github.com/bawdo/withbee/managers (query builders)
//   - github.com/bawdo/withbee/nodes (AST nodes)
//   - github.com/bawdo/withbee/visitors (SQL generation)
//   - github.com/bawdo/withbee/db (execution)
//   - github.com/bawdo/withbee/plugins (query transformers)
package withbee

import (
	"context"
	"log/slog"

	"github.com/bawdo/withbee/db"
	"github.com/bawdo/withbee/managers"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

// --- Drivers ---

// Driver names accepted by New and Open.
const (
	MySQL       = visitors.DriverMySQL
	MariaDB     = visitors.DriverMariaDB
	Postgres    = visitors.DriverPostgres
	SQLite      = visitors.DriverSQLite
	SQLServer   = visitors.DriverSQLServer
	Oracle      = visitors.DriverOracle
	SingleStore = visitors.DriverSingleStore
	Firebird    = visitors.DriverFirebird
)

// Drivers returns the supported driver names in sorted order.
func Drivers() []string {
	return visitors.Drivers()
}

// --- Manager Types ---

// SelectManager builds SELECT statements and the writes that reuse their
// expressions.
type SelectManager = managers.SelectManager

// InsertManager builds INSERT ... VALUES statements.
type InsertManager = managers.InsertManager

// ExpressionOption configures a common table expression.
type ExpressionOption = managers.ExpressionOption

// Conn executes compiled statements for one driver.
type Conn = db.Conn

// --- Constructors ---

// New creates a SelectManager over from, compiling for driver.
func New(driver string, from nodes.Node, opts ...visitors.Option) (*managers.SelectManager, error) {
	g, err := visitors.ForDriver(driver, opts...)
	if err != nil {
		return nil, err
	}
	return managers.NewSelectManager(g, from), nil
}

// Open connects to a database.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*db.Conn, error) {
	return db.Open(ctx, db.Config{Driver: driver, DSN: dsn}, logger)
}

// Table creates a SelectManager over the named table bound to conn.
func Table(conn *db.Conn, name string, opts ...visitors.Option) (*managers.SelectManager, error) {
	return managers.Table(conn, name, opts...)
}

// --- Expression Options ---

// Columns names the expression's output columns.
func Columns(cols ...string) managers.ExpressionOption {
	return managers.Columns(cols...)
}

// Recursive marks an expression as recursive.
func Recursive() managers.ExpressionOption {
	return managers.Recursive()
}

// Cycle enables cycle detection over the given columns.
func Cycle(cols ...string) managers.ExpressionOption {
	return managers.Cycle(nodes.CycleSpec{Columns: cols})
}

// Set assigns val to column in an update.
func Set(column string, val any) *nodes.AssignmentNode {
	return managers.Set(column, val)
}

// --- Core Node Types ---

// Node is the base interface all AST nodes implement.
type Node = nodes.Node

// TableNode represents a SQL table reference.
type TableNode = nodes.Table

// Attribute represents a column reference.
type Attribute = nodes.Attribute

// NewTable creates a new table reference.
func NewTable(name string) *nodes.Table {
	return nodes.NewTable(name)
}

// Column parses "col" or "table.col" into an attribute.
func Column(ref string) *nodes.Attribute {
	return nodes.Column(ref)
}

// Literal wraps a Go value as a SQL literal.
func Literal(value any) nodes.Node {
	return nodes.Literal(value)
}

// Raw creates an unescaped SQL fragment.
func Raw(sql string) *nodes.SqlLiteral {
	return nodes.NewSqlLiteral(sql)
}

// Star creates an unqualified star (*) for SELECT *.
func Star() *nodes.StarNode {
	return nodes.Star()
}

// Count creates a COUNT(expr) aggregate.
func Count(expr nodes.Node) *nodes.AggregateNode {
	return nodes.Count(expr)
}

// --- Grammar Options ---

// WithoutParams renders values inline instead of as ? placeholders.
func WithoutParams() visitors.Option {
	return visitors.WithoutParams()
}

// WithLegacyOffset paginates sqlsrv with row_number() instead of
// offset ... fetch.
func WithLegacyOffset() visitors.Option {
	return visitors.WithLegacyOffset()
}
