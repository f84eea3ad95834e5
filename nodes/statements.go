package nodes

import "github.com/bawdo/withbee/bindings"

// AssignmentNode represents a column = value pair in SET clauses.
type AssignmentNode struct {
	Left  Node // column (Attribute)
	Right Node // value
}

func (n *AssignmentNode) Accept(v Visitor) string { return v.VisitAssignment(n) }

// Set builds an assignment of val to col. Plain Go values are bound.
func Set(col *Attribute, val any) *AssignmentNode {
	return &AssignmentNode{Left: col, Right: Literal(val)}
}

// InsertStatement represents INSERT INTO ... VALUES or INSERT INTO ... SELECT.
// With and Bindings carry the expressions of the builder issuing the
// statement; the SELECT text itself is opaque.
type InsertStatement struct {
	Into     Node     // *Table
	Columns  []string // target column names
	Values   [][]Node // rows of values (mutually exclusive with Select)
	Select   Node     // resolved query for INSERT ... SELECT
	With     *WithClause
	Bindings *bindings.Ledger
}

func (n *InsertStatement) Accept(v Visitor) string { return v.VisitInsertStatement(n) }

// UpdateStatement represents UPDATE ... SET over the rows selected by Query.
// Query supplies the target table (From), joins, predicates, ordering,
// limit and the WITH clause.
type UpdateStatement struct {
	Query       *SelectCore
	Assignments []*AssignmentNode
}

func (n *UpdateStatement) Accept(v Visitor) string { return v.VisitUpdateStatement(n) }

// DeleteStatement represents DELETE over the rows selected by Query.
type DeleteStatement struct {
	Query *SelectCore
}

func (n *DeleteStatement) Accept(v Visitor) string { return v.VisitDeleteStatement(n) }

// HasJoinsOrLimit reports whether the statement narrows its target with
// joins or a row limit.
func HasJoinsOrLimit(core *SelectCore) bool {
	return core != nil && (len(core.Joins) > 0 || core.Limit != nil)
}
