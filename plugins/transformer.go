// Package plugins holds the AST middleware a manager runs before it
// compiles a statement.
package plugins

import "github.com/bawdo/withbee/nodes"

// Transformer rewrites a statement tree before compilation. A
// SelectManager hands TransformSelect its own core and the core of every
// expression body built through a callback. Writes issued through the
// manager (insert using, update, update from, delete) pass through the
// matching method. ExpressionNames lists the CTE names a core declares so
// a transformer can leave them alone.
type Transformer interface {
	TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error)
	TransformInsert(stmt *nodes.InsertStatement) (*nodes.InsertStatement, error)
	TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error)
	TransformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error)
}

// BaseTransformer passes every statement through unchanged. Embed it and
// override the statement kinds a plugin rewrites.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	return core, nil
}

func (BaseTransformer) TransformInsert(stmt *nodes.InsertStatement) (*nodes.InsertStatement, error) {
	return stmt, nil
}

func (BaseTransformer) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	return stmt, nil
}

func (BaseTransformer) TransformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	return stmt, nil
}
