package managers

import "github.com/bawdo/withbee/nodes"

// JoinContext is returned by SelectManager.Join() and holds the join
// until its condition is supplied through On().
type JoinContext struct {
	manager *SelectManager
	join    *nodes.JoinNode
}

// On sets the join condition and returns the SelectManager for
// continued method chaining.
func (jc *JoinContext) On(condition nodes.Node) *SelectManager {
	jc.join.On = condition
	return jc.manager
}

// OnColumns is shorthand for On(left = right) over two column references.
func (jc *JoinContext) OnColumns(left, right string) *SelectManager {
	return jc.On(nodes.Column(left).Eq(nodes.Column(right)))
}
