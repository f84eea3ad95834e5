package managers

import (
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/plugins"
)

// treeManager is the shared base for all manager types. It holds the
// transformer pipeline common to the select and insert managers and to
// the write statements a SelectManager issues.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

func (tm *treeManager) transformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	for _, t := range tm.transformers {
		var err error
		if core, err = t.TransformSelect(core); err != nil {
			return nil, err
		}
	}
	return core, nil
}

func (tm *treeManager) transformInsert(stmt *nodes.InsertStatement) (*nodes.InsertStatement, error) {
	for _, t := range tm.transformers {
		var err error
		if stmt, err = t.TransformInsert(stmt); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (tm *treeManager) transformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	for _, t := range tm.transformers {
		var err error
		if stmt, err = t.TransformUpdate(stmt); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (tm *treeManager) transformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	for _, t := range tm.transformers {
		var err error
		if stmt, err = t.TransformDelete(stmt); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}
