package visitors

import (
	"github.com/bawdo/withbee/internal/quoting"
	"github.com/bawdo/withbee/nodes"
)

// OracleGrammar generates Oracle-dialect SQL.
// Identifiers are quoted with double quotes and rows are paginated with
// offset/fetch.
type OracleGrammar struct {
	*baseVisitor
}

// NewOracleGrammar creates an OracleGrammar ready for use.
func NewOracleGrammar(opts ...Option) *OracleGrammar {
	v := &OracleGrammar{}
	v.baseVisitor = newBaseVisitor(v, quoting.DoubleQuote, standardComponents)
	v.withAfterTarget = true
	v.applyOptions(opts)
	return v
}

func (v *OracleGrammar) Driver() string { return DriverOracle }

// RecursiveKeyword is always empty; Oracle infers recursion.
func (v *OracleGrammar) RecursiveKeyword([]*nodes.Expression) string { return "" }

func (v *OracleGrammar) paginate(limit, offset nodes.Node) string {
	return v.fetchPaginate(limit, offset)
}
