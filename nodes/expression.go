package nodes

import "github.com/bawdo/withbee/bindings"

// Materialization is the tri-state materialization hint of an Expression.
type Materialization int

const (
	MaterializeDefault Materialization = iota // let the engine decide
	Materialized                              // as materialized (...)
	NotMaterialized                           // as not materialized (...)
)

// UnlimitedRecursion lifts an engine's recursion cap when passed as a
// recursion limit.
const UnlimitedRecursion = 0

// Default column names for cycle detection.
const (
	DefaultCycleMarkColumn = "is_cycle"
	DefaultCyclePathColumn = "path"
)

// CycleSpec configures cycle detection for a recursive expression.
type CycleSpec struct {
	Columns    []string // columns compared to detect a cycle
	MarkColumn string   // boolean flag column emitted by the engine
	PathColumn string   // accumulated path column
}

// Expression is one common table expression. Query holds SQL text that
// was resolved when the expression was registered; Bindings holds the
// values of its placeholders in order. Expressions are never mutated
// after registration.
type Expression struct {
	Name         string
	Query        string
	Bindings     []any
	Columns      []string // nil means the engine infers them
	Recursive    bool
	Materialized Materialization
	Cycle        *CycleSpec
}

// WithClause is an ordered list of expressions plus the recursion limit
// that governs the statement they prefix.
type WithClause struct {
	Expressions    []*Expression
	RecursionLimit *int
}

// Empty reports whether the clause has neither expressions nor a limit.
func (w *WithClause) Empty() bool {
	return w == nil || (len(w.Expressions) == 0 && w.RecursionLimit == nil)
}

// ExpressionList returns the expressions of w, tolerating a nil clause.
func (w *WithClause) ExpressionList() []*Expression {
	if w == nil {
		return nil
	}
	return w.Expressions
}

// Limit returns the recursion limit of w, tolerating a nil clause.
func (w *WithClause) Limit() *int {
	if w == nil {
		return nil
	}
	return w.RecursionLimit
}

// Target selects which WITH clause of a SelectCore receives new
// expressions and recursion limits.
type Target int

const (
	// TargetStatement is the statement's own WITH clause.
	TargetStatement Target = iota
	// TargetUnion wraps the whole union once branches have been added.
	TargetUnion
)

// Bucket returns the ledger bucket that holds bindings of expressions
// registered against t.
func (t Target) Bucket() bindings.Bucket {
	if t == TargetUnion {
		return bindings.UnionExpressions
	}
	return bindings.Expressions
}

func (t Target) String() string {
	if t == TargetUnion {
		return "union"
	}
	return "statement"
}
