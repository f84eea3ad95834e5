// Package visitors provides the SQL grammars that walk the AST. Every
// grammar renders lowercase keywords, always uses ? placeholders and
// knows how to prefix statements with common table expressions.
package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// Operator SQL strings for ComparisonOp values.
var comparisonOpSQL = [...]string{
	nodes.OpEq:      "=",
	nodes.OpNotEq:   "!=",
	nodes.OpGt:      ">",
	nodes.OpGtEq:    ">=",
	nodes.OpLt:      "<",
	nodes.OpLtEq:    "<=",
	nodes.OpLike:    "like",
	nodes.OpNotLike: "not like",
}

// Aggregate function SQL names.
var aggregateFuncSQL = [...]string{
	nodes.AggCount: "count",
	nodes.AggSum:   "sum",
	nodes.AggAvg:   "avg",
	nodes.AggMin:   "min",
	nodes.AggMax:   "max",
}

// Option configures a grammar at construction time.
type Option func(*baseVisitor)

// WithoutParams disables parameterized mode.
//
// WARNING: disables SQL injection protection. Literal values are
// interpolated into the SQL string with basic escaping only. Use it for
// debugging output, never for statements built from untrusted input.
func WithoutParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = false
	}
}

// WithLegacyOffset makes the SQL Server grammar paginate with a
// row_number() wrapper instead of offset/fetch, for servers older than
// SQL Server 2012. Other grammars ignore it.
func WithLegacyOffset() Option {
	return func(b *baseVisitor) {
		b.legacyOffset = true
	}
}

// IgnoreOrderByInDeletes drops order by from delete statements.
// Only the SingleStore grammar consults it.
func IgnoreOrderByInDeletes() Option {
	return func(b *baseVisitor) {
		b.ignoreOrderInDeletes = true
	}
}

// IgnoreOrderByInUpdates drops order by from update statements.
// Only the SingleStore grammar consults it.
func IgnoreOrderByInUpdates() Option {
	return func(b *baseVisitor) {
		b.ignoreOrderInUpdates = true
	}
}

// baseVisitor implements the SQL generation shared by all dialects.
// Dialect grammars embed *baseVisitor and set outer to themselves so that
// every recursive call goes through the dialect's overrides.
type baseVisitor struct {
	// outer is the concrete dialect grammar.
	outer dialect

	// quoteIdent quotes a single identifier segment.
	quoteIdent quoting.Quoter

	// parameterize renders literal values as ? and records them.
	parameterize bool

	// ledger receives the values of placeholders while compiling;
	// bucket is the clause currently being rendered.
	ledger *bindings.Ledger
	bucket bindings.Bucket

	// components renders the clauses of a single select, in order.
	components []selectComponent

	// withAfterTarget places the WITH clause of insert ... select
	// between the target and the query.
	withAfterTarget bool

	legacyOffset         bool
	ignoreOrderInDeletes bool
	ignoreOrderInUpdates bool
}

func newBaseVisitor(outer dialect, quote quoting.Quoter, components []selectComponent) *baseVisitor {
	return &baseVisitor{
		outer:        outer,
		quoteIdent:   quote,
		parameterize: true,
		ledger:       bindings.New(),
		bucket:       bindings.Select,
		components:   components,
	}
}

// applyOptions applies functional options to the baseVisitor.
func (b *baseVisitor) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
}

// begin resets the compile state, seeding the ledger with a copy of seed.
func (b *baseVisitor) begin(seed *bindings.Ledger, bucket bindings.Bucket) {
	b.ledger = seed.Clone()
	b.bucket = bucket
}

// bind records values in the current bucket.
func (b *baseVisitor) bind(vals ...any) {
	b.ledger.Add(b.bucket, vals...)
}

// in renders fn with bucket as the current bucket.
func (b *baseVisitor) in(bucket bindings.Bucket, fn func() string) string {
	saved := b.bucket
	b.bucket = bucket
	defer func() { b.bucket = saved }()
	return fn()
}

// quoteTable quotes a possibly schema-qualified name segment by segment.
func (b *baseVisitor) quoteTable(name string) string {
	if !strings.Contains(name, ".") {
		return b.quoteIdent(name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = b.quoteIdent(p)
	}
	return strings.Join(parts, ".")
}

func (b *baseVisitor) columnize(names []string) string {
	return quoting.Columnize(b.quoteIdent, names)
}

func (b *baseVisitor) VisitTable(n *nodes.Table) string {
	return b.quoteTable(n.Name)
}

func (b *baseVisitor) VisitTableAlias(n *nodes.TableAlias) string {
	if tbl, ok := n.Relation.(*nodes.Table); ok {
		return b.quoteTable(tbl.Name) + " as " + b.quoteIdent(n.AliasName)
	}
	return "(" + n.Relation.Accept(b.outer) + ") as " + b.quoteIdent(n.AliasName)
}

func (b *baseVisitor) VisitAttribute(n *nodes.Attribute) string {
	name := b.quoteIdent(n.Name)
	if n.Name == "*" {
		name = "*"
	}
	if n.Relation == nil {
		return name
	}
	return b.qualifierName(n.Relation) + "." + name
}

// qualifierName returns the quoted name used to qualify a column reference.
func (b *baseVisitor) qualifierName(rel nodes.Node) string {
	if _, ok := rel.(*nodes.TableAlias); ok {
		return b.quoteIdent(nodes.RelationName(rel))
	}
	return b.quoteTable(nodes.RelationName(rel))
}

func (b *baseVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	return b.literalToSQL(n.Value)
}

func (b *baseVisitor) literalToSQL(val any) string {
	// nil always renders as the null keyword, never parameterized.
	if val == nil {
		return "null"
	}

	if b.parameterize {
		b.bind(val)
		return "?"
	}

	switch v := val.(type) {
	case string:
		return "'" + quoting.EscapeString(v) + "'"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	default:
		panic(fmt.Sprintf("withbee: unsupported literal type %T", v))
	}
}

func (b *baseVisitor) VisitStar(n *nodes.StarNode) string {
	if n.Table != nil {
		return b.quoteTable(n.Table.Name) + ".*"
	}
	return "*"
}

func (b *baseVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	if len(n.Binds) > 0 {
		b.bind(n.Binds...)
	}
	return n.Raw
}

func (b *baseVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " " + comparisonOpSQL[n.Op] + " " + right
}

func (b *baseVisitor) VisitUnary(n *nodes.UnaryNode) string {
	expr := n.Expr.Accept(b.outer)
	switch n.Op {
	case nodes.OpIsNull:
		return expr + " is null"
	case nodes.OpIsNotNull:
		return expr + " is not null"
	default:
		return expr
	}
}

func (b *baseVisitor) VisitAnd(n *nodes.AndNode) string {
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " and " + right
}

func (b *baseVisitor) VisitOr(n *nodes.OrNode) string {
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " or " + right
}

func (b *baseVisitor) VisitNot(n *nodes.NotNode) string {
	return "not (" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitIn(n *nodes.InNode) string {
	keyword := "in"
	if n.Negate {
		keyword = "not in"
	}
	if n.Query != nil {
		expr := n.Expr.Accept(b.outer)
		return expr + " " + keyword + " (" + n.Query.Accept(b.outer) + ")"
	}
	// An empty list matches nothing, or everything when negated.
	if len(n.Vals) == 0 {
		if n.Negate {
			return "1 = 1"
		}
		return "0 = 1"
	}
	expr := n.Expr.Accept(b.outer)
	vals := make([]string, len(n.Vals))
	for i, v := range n.Vals {
		vals[i] = v.Accept(b.outer)
	}
	return expr + " " + keyword + " (" + strings.Join(vals, ", ") + ")"
}

func (b *baseVisitor) VisitBetween(n *nodes.BetweenNode) string {
	expr := n.Expr.Accept(b.outer)
	low := n.Low.Accept(b.outer)
	high := n.High.Accept(b.outer)
	keyword := "between"
	if n.Negate {
		keyword = "not between"
	}
	return expr + " " + keyword + " " + low + " and " + high
}

func (b *baseVisitor) VisitGrouping(n *nodes.GroupingNode) string {
	return "(" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitExists(n *nodes.ExistsNode) string {
	keyword := "exists"
	if n.Negated {
		keyword = "not exists"
	}
	return keyword + " (" + n.Subquery.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitOrdering(n *nodes.OrderingNode) string {
	expr := n.Expr.Accept(b.outer)
	if n.Direction == nodes.Desc {
		return expr + " desc"
	}
	return expr + " asc"
}

func (b *baseVisitor) VisitJoin(n *nodes.JoinNode) string {
	// StringJoin: raw SQL fragment, output directly.
	if n.Type == nodes.StringJoin {
		return n.Right.Accept(b.outer)
	}

	rightSQL := n.Right.Accept(b.outer)
	if _, ok := n.Right.(*nodes.SelectCore); ok {
		rightSQL = "(" + rightSQL + ")"
	}

	var sb strings.Builder
	sb.WriteString(n.Type.String())
	sb.WriteString(" ")
	sb.WriteString(rightSQL)
	if n.On != nil {
		sb.WriteString(" on ")
		sb.WriteString(n.On.Accept(b.outer))
	}
	return sb.String()
}

func (b *baseVisitor) VisitAggregate(n *nodes.AggregateNode) string {
	var sb strings.Builder
	sb.WriteString(aggregateFuncSQL[n.Func])
	sb.WriteString("(")
	if n.Distinct {
		sb.WriteString("distinct ")
	}
	if n.Expr == nil {
		sb.WriteString("*")
	} else {
		sb.WriteString(n.Expr.Accept(b.outer))
	}
	sb.WriteString(")")
	return sb.String()
}

func (b *baseVisitor) VisitAlias(n *nodes.AliasNode) string {
	return n.Expr.Accept(b.outer) + " as " + b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitBindParam(n *nodes.BindParamNode) string {
	if !b.parameterize {
		return b.literalToSQL(n.Value)
	}
	b.bind(n.Value)
	return "?"
}

func (b *baseVisitor) VisitAssignment(n *nodes.AssignmentNode) string {
	// The target column is never qualified in a set clause.
	col := n.Left.Accept(b.outer)
	if attr, ok := n.Left.(*nodes.Attribute); ok {
		col = b.quoteIdent(attr.Name)
	}
	return col + " = " + n.Right.Accept(b.outer)
}

// VisitSelectCore renders a select nested inside another statement: a
// subquery, a derived table or a union branch. Its own ledger is
// compiled in isolation and the flattened values land in the bucket of
// the enclosing clause.
func (b *baseVisitor) VisitSelectCore(n *nodes.SelectCore) string {
	saved, savedBucket := b.ledger, b.bucket
	b.begin(n.Bindings, bindings.Select)
	sql := b.outer.selectSQL(n, false)
	args := b.ledger.Flatten(bindings.SelectOrder...)
	b.ledger, b.bucket = saved, savedBucket
	b.bind(args...)
	return sql
}

// joinClauses joins the non-empty parts with single spaces.
func joinClauses(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// listSQL renders items separated by sep.
func (b *baseVisitor) listSQL(items []nodes.Node, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Accept(b.outer)
	}
	return strings.Join(parts, sep)
}

// intValue extracts an integer from a literal limit or offset node.
func intValue(n nodes.Node) (int, bool) {
	lit, ok := n.(*nodes.LiteralNode)
	if !ok {
		return 0, false
	}
	switch v := lit.Value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	}
	return 0, false
}

// countSQL renders a limit or offset. Integers are inlined; anything
// else goes through the visitor.
func (b *baseVisitor) countSQL(n nodes.Node) string {
	if v, ok := intValue(n); ok {
		return fmt.Sprintf("%d", v)
	}
	return n.Accept(b.outer)
}
