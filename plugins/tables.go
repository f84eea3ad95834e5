package plugins

import "github.com/bawdo/withbee/nodes"

// TableRef holds a reference to a table relation and its underlying name.
// Relation is the node used to create column references (preserving aliases),
// and Name is the underlying table name (for matching/filtering).
type TableRef struct {
	Relation nodes.Node // *nodes.Table or *nodes.TableAlias
	Name     string     // underlying table name
}

// CollectTables returns all table relations referenced in a SelectCore,
// including the FROM table and all JOIN targets. Subqueries and
// references to any expression in scope are skipped, whether the core
// declares it or an enclosing union or expression does.
func CollectTables(core *nodes.SelectCore) []TableRef {
	if core == nil {
		return nil
	}
	ctes := ExpressionNames(core)
	var refs []TableRef
	add := func(n nodes.Node) {
		ref, ok := extractTableRef(n)
		if !ok || ctes[ref.Name] {
			return
		}
		refs = append(refs, ref)
	}
	add(core.From)
	for _, j := range core.Joins {
		add(j.Right)
	}
	return refs
}

// ExpressionNames returns the expression names visible inside core,
// including those declared by the statements it is nested in.
func ExpressionNames(core *nodes.SelectCore) map[string]bool {
	names := make(map[string]bool)
	for _, n := range core.ExpressionNames() {
		names[n] = true
	}
	return names
}

func extractTableRef(n nodes.Node) (TableRef, bool) {
	switch r := n.(type) {
	case *nodes.Table:
		return TableRef{Relation: r, Name: r.Name}, true
	case *nodes.TableAlias:
		if tbl, ok := r.Relation.(*nodes.Table); ok {
			return TableRef{Relation: r, Name: tbl.Name}, true
		}
		return TableRef{}, false
	default:
		return TableRef{}, false
	}
}
