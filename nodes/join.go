package nodes

// JoinType represents the type of SQL JOIN.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
	CrossJoin
	StringJoin // raw SQL join fragment
)

// String returns the SQL keyword for this join type.
func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner join"
	case LeftOuterJoin:
		return "left join"
	case RightOuterJoin:
		return "right join"
	case CrossJoin:
		return "cross join"
	default:
		return ""
	}
}

// JoinNode represents a SQL JOIN clause.
type JoinNode struct {
	Right Node     // target table, CTE reference or subquery
	Type  JoinType // join type
	On    Node     // join condition (nil for cross join)
}

func (n *JoinNode) Accept(v Visitor) string { return v.VisitJoin(n) }
