package visitors

import (
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// FirebirdGrammar generates Firebird-dialect SQL.
type FirebirdGrammar struct {
	*baseVisitor
}

// NewFirebirdGrammar creates a FirebirdGrammar ready for use.
func NewFirebirdGrammar(opts ...Option) *FirebirdGrammar {
	v := &FirebirdGrammar{}
	v.baseVisitor = newBaseVisitor(v, quoting.DoubleQuote, standardComponents)
	v.withAfterTarget = true
	v.applyOptions(opts)
	return v
}

func (v *FirebirdGrammar) Driver() string { return DriverFirebird }

// RecursiveKeyword is always empty.
func (v *FirebirdGrammar) RecursiveKeyword([]*nodes.Expression) string { return "" }

// wrapUnion leaves union operands bare.
func (v *FirebirdGrammar) wrapUnion(sql string) string { return sql }

func (v *FirebirdGrammar) paginate(limit, offset nodes.Node) string {
	return v.fetchPaginate(limit, offset)
}
