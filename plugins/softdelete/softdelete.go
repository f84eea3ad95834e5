// Package softdelete provides a Transformer that hides soft-deleted rows.
//
// It appends "column is null" for every table referenced in the FROM and
// JOIN clauses of selects, updates and deletes. References to any common
// table expression in scope are left alone: those the query declares,
// those wrapping the union a branch belongs to, and a recursive body's
// own name. Expression bodies built through a callback inherit the
// transformer, so each body filters its own tables.
//
//	sd := softdelete.New()
//	q.Use(sd)
//	// select * from "users" where "users"."deleted_at" is null
//
// The column and the set of tables can be customised:
//
//	sd := softdelete.New(
//	    softdelete.WithTableColumn("users", "deleted_at"),
//	    softdelete.WithTableColumn("posts", "removed_at"),
//	)
//
// From the withbee shell:
//
//	withbee> plugin softdelete removed_at on users posts
//	withbee> plugin off softdelete
package softdelete

import (
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/plugins"
)

// SoftDelete is a Transformer that appends IS NULL conditions for a
// soft-delete column on every referenced table (or a configured subset).
type SoftDelete struct {
	plugins.BaseTransformer
	Column  string
	Columns map[string]string // per-table column overrides (table name → column name)
	tables  map[string]bool   // nil means apply to all tables
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithColumn sets the soft-delete column name. Default is "deleted_at".
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithTables restricts the plugin to only the named tables.
// By default, the plugin applies to every table in the query.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn sets a per-table column override. The table is
// automatically added to the whitelist, restricting the plugin's scope.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: "deleted_at"}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformSelect appends "column is null" to the WHERE clause for each
// matching table referenced in the query (FROM and JOINs).
func (sd *SoftDelete) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	sd.restrict(core)
	return core, nil
}

// TransformUpdate keeps updates away from soft-deleted rows.
func (sd *SoftDelete) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	sd.restrict(stmt.Query)
	return stmt, nil
}

// TransformDelete keeps deletes away from already soft-deleted rows.
func (sd *SoftDelete) TransformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	sd.restrict(stmt.Query)
	return stmt, nil
}

func (sd *SoftDelete) restrict(core *nodes.SelectCore) {
	for _, ref := range plugins.CollectTables(core) {
		if sd.appliesTo(ref.Name) {
			attr := nodes.NewAttribute(ref.Relation, sd.columnFor(ref.Name))
			core.Wheres = append(core.Wheres, attr.IsNull())
		}
	}
}

func (sd *SoftDelete) appliesTo(tableName string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[tableName]
}

// columnFor returns the column name to use for the given table.
// It checks Columns for a per-table override, falling back to Column.
func (sd *SoftDelete) columnFor(tableName string) string {
	if sd.Columns != nil {
		if col, ok := sd.Columns[tableName]; ok {
			return col
		}
	}
	return sd.Column
}
