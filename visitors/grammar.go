package visitors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/withbee/nodes"
)

// Driver names accepted by ForDriver.
const (
	DriverMySQL       = "mysql"
	DriverMariaDB     = "mariadb"
	DriverPostgres    = "pgsql"
	DriverSQLite      = "sqlite"
	DriverSQLServer   = "sqlsrv"
	DriverOracle      = "oracle"
	DriverSingleStore = "singlestore"
	DriverFirebird    = "firebird"
)

// Grammar compiles queries for one SQL dialect. The Compile methods return
// the SQL text and the values of its ? placeholders in order.
//
// A Grammar keeps per-compilation state and is not safe for concurrent
// use; build one per goroutine.
type Grammar interface {
	nodes.Visitor

	// Driver returns the driver name the grammar was registered under.
	Driver() string

	// CompileExpressions renders a WITH prologue for exprs, or "" when
	// exprs is empty.
	CompileExpressions(exprs []*nodes.Expression) string
	// RecursiveKeyword returns "recursive " when the dialect requires the
	// keyword and any expression is recursive.
	RecursiveKeyword(exprs []*nodes.Expression) string
	// CompileCycle renders the cycle detection clause of e, or "".
	CompileCycle(e *nodes.Expression) string
	// CompileRecursionLimit renders the recursion limit hint, or "".
	CompileRecursionLimit(limit *int) string

	// CompileSelect renders a complete select, its unions and both WITH
	// clauses.
	CompileSelect(core *nodes.SelectCore) (string, []any)
	// CompileExpressionBody renders a select that will become the body
	// of a common table expression.
	CompileExpressionBody(core *nodes.SelectCore) (string, []any)

	// CompileInsert renders insert ... values.
	CompileInsert(stmt *nodes.InsertStatement) (string, []any)
	// CompileInsertUsing renders insert ... select with the statement's
	// WITH clause in the position the dialect requires.
	CompileInsertUsing(stmt *nodes.InsertStatement) (string, []any)
	// CompileUpdate renders update with the query's WITH clause.
	CompileUpdate(stmt *nodes.UpdateStatement) (string, []any)
	// CompileDelete renders delete with the query's WITH clause.
	CompileDelete(stmt *nodes.DeleteStatement) (string, []any)
}

// UpdateFromCompiler is implemented by grammars that support
// update ... from ... joined updates.
type UpdateFromCompiler interface {
	CompileUpdateFrom(stmt *nodes.UpdateStatement) (string, []any)
}

// dialect is the full set of hooks the shared code dispatches through.
type dialect interface {
	Grammar

	// selectSQL renders a select with its unions. body is true when the
	// select is the body of a common table expression.
	selectSQL(n *nodes.SelectCore, body bool) string
	// statementSQL renders one select without unions.
	statementSQL(n *nodes.SelectCore) string
	// wrapUnion wraps the first select of a union or an operand.
	wrapUnion(sql string) string
	// unionBranch renders one union operand.
	unionBranch(keyword, sql string, body bool) string
	// paginate renders the limit and offset clauses.
	paginate(limit, offset nodes.Node) string

	updateSQL(n *nodes.UpdateStatement) string
	deleteSQL(n *nodes.DeleteStatement) string
}

var constructors = map[string]func(...Option) Grammar{
	DriverMySQL:       func(o ...Option) Grammar { return NewMySQLGrammar(o...) },
	DriverMariaDB:     func(o ...Option) Grammar { return NewMariaDBGrammar(o...) },
	DriverPostgres:    func(o ...Option) Grammar { return NewPostgresGrammar(o...) },
	DriverSQLite:      func(o ...Option) Grammar { return NewSQLiteGrammar(o...) },
	DriverSQLServer:   func(o ...Option) Grammar { return NewSQLServerGrammar(o...) },
	DriverOracle:      func(o ...Option) Grammar { return NewOracleGrammar(o...) },
	DriverSingleStore: func(o ...Option) Grammar { return NewSingleStoreGrammar(o...) },
	DriverFirebird:    func(o ...Option) Grammar { return NewFirebirdGrammar(o...) },
}

// UnknownDriverError is returned by ForDriver for an unregistered name.
type UnknownDriverError struct {
	Driver    string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown driver %q (available: %s)", e.Driver, strings.Join(e.Available, ", "))
}

// ForDriver builds the grammar registered under name.
func ForDriver(name string, opts ...Option) (Grammar, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &UnknownDriverError{Driver: name, Available: Drivers()}
	}
	return ctor(opts...), nil
}

// Drivers returns the registered driver names in sorted order.
func Drivers() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
