package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/withbee/plugins"
	"github.com/bawdo/withbee/plugins/softdelete"
)

// configureSoftdelete parses softdelete arguments and registers the
// plugin. It applies to every statement assembled afterwards, expression
// bodies included.
func configureSoftdelete(s *Session, args string) error {
	rest := strings.TrimSpace(args)
	var opts []softdelete.Option
	var statusFn func() string

	switch {
	case strings.Contains(rest, "."):
		// users.deleted_at, posts.removed_at
		columns := map[string]string{}
		for _, pair := range splitList(rest) {
			table, col, ok := strings.Cut(pair, ".")
			if !ok || table == "" || col == "" {
				return fmt.Errorf("invalid table.column pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableColumn(table, col))
			columns[table] = col
		}
		statusFn = func() string {
			pairs := make([]string, 0, len(columns))
			for t, c := range columns {
				pairs = append(pairs, t+"."+c)
			}
			sort.Strings(pairs)
			return strings.Join(pairs, ", ")
		}
		_, _ = fmt.Fprintln(s.out, "  Soft-delete enabled (per-table columns)")

	case indexWord(rest, "on") >= 0:
		// removed_at on users posts
		idx := indexWord(rest, "on")
		col := strings.TrimSpace(rest[:idx])
		tableList := strings.Fields(rest[idx+len(" on "):])
		if col == "" || len(tableList) == 0 {
			return errors.New("usage: plugin softdelete <column> on <table1> [table2 ...]")
		}
		opts = append(opts, softdelete.WithColumn(col), softdelete.WithTables(tableList...))
		statusFn = func() string {
			return fmt.Sprintf("column: %s, tables: %s", col, strings.Join(tableList, ", "))
		}
		_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (column: %s, tables: %s)\n", col, strings.Join(tableList, ", "))

	case rest != "":
		col := strings.Fields(rest)[0]
		opts = append(opts, softdelete.WithColumn(col))
		statusFn = func() string { return "column: " + col }
		_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (column: %s)\n", col)

	default:
		statusFn = func() string { return "column: deleted_at" }
		_, _ = fmt.Fprintln(s.out, "  Soft-delete enabled (column: deleted_at)")
	}

	s.plugins.register(pluginEntry{
		name:    "softdelete",
		factory: func() plugins.Transformer { return softdelete.New(opts...) },
		status:  statusFn,
	})
	return nil
}
