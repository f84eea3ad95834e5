package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/withbee/managers"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

// --- Query building ---

func (s *Session) cmdFrom(args string) error {
	name := strings.TrimSpace(args)
	if !isIdentifier(name) {
		return errors.New("usage: from <table>")
	}
	s.query = managers.NewSelectManager(s.grammar, nodes.NewTable(name))
	_, _ = fmt.Fprintf(s.out, "  Query FROM %q\n", name)
	return nil
}

func (s *Session) cmdSelect(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	parts := splitList(args)
	if len(parts) == 0 {
		return errors.New("usage: select <col>[, <col> ...]")
	}
	projs := make([]nodes.Node, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == "*":
			projs = append(projs, nodes.Star())
		case strings.HasSuffix(p, ".*") && isIdentifier(strings.TrimSuffix(p, ".*")):
			projs = append(projs, nodes.NewTable(strings.TrimSuffix(p, ".*")).Star())
		case isIdentifier(p):
			projs = append(projs, nodes.Column(p))
		default:
			projs = append(projs, nodes.NewSqlLiteral(p))
		}
	}
	s.query.Select(projs...)
	_, _ = fmt.Fprintf(s.out, "  Projections set (%d columns)\n", len(projs))
	return nil
}

func (s *Session) cmdDistinct() error {
	if s.query == nil {
		return errNoQuery
	}
	s.query.Distinct()
	_, _ = fmt.Fprintln(s.out, "  DISTINCT enabled")
	return nil
}

func (s *Session) cmdWhere(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	cond, err := parseCondition(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}
	s.query.Where(cond)
	_, _ = fmt.Fprintln(s.out, "  WHERE condition added")
	return nil
}

func (s *Session) cmdWhereRaw(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	raw := strings.TrimSpace(args)
	if raw == "" {
		return errors.New("usage: where raw <sql>")
	}
	s.query.WhereRaw(raw)
	_, _ = fmt.Fprintln(s.out, "  WHERE fragment added")
	return nil
}

// cmdJoin handles "<table> on <left> = <right>".
func (s *Session) cmdJoin(args string, joinType nodes.JoinType) error {
	if s.query == nil {
		return errNoQuery
	}
	idx := indexWord(args, "on")
	if idx < 0 {
		return errors.New("expected: <table> on <left> = <right>")
	}
	table := strings.TrimSpace(args[:idx])
	tokens := tokenize(args[idx+len(" on "):])
	if !isIdentifier(table) || len(tokens) != 3 || tokens[1] != "=" || !isIdentifier(tokens[0]) || !isIdentifier(tokens[2]) {
		return errors.New("expected: <table> on <left> = <right>")
	}
	s.query.Join(nodes.NewTable(table), joinType).OnColumns(tokens[0], tokens[2])
	_, _ = fmt.Fprintf(s.out, "  %s %q added\n", joinType, table)
	return nil
}

func (s *Session) cmdGroup(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	cols := splitList(args)
	if len(cols) == 0 {
		return errors.New("usage: group <col>[, <col> ...]")
	}
	s.query.Group(nodes.Columns(cols...)...)
	_, _ = fmt.Fprintf(s.out, "  GROUP BY set (%d columns)\n", len(cols))
	return nil
}

func (s *Session) cmdOrder(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	parts := splitList(args)
	if len(parts) == 0 {
		return errors.New("usage: order <col> [asc|desc][, ...]")
	}
	orderings := make([]nodes.Node, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(p)
		if len(fields) > 2 || !isIdentifier(fields[0]) {
			return fmt.Errorf("invalid ordering %q", p)
		}
		col := nodes.Column(fields[0])
		switch {
		case len(fields) == 1 || strings.EqualFold(fields[1], "asc"):
			orderings = append(orderings, col.Asc())
		case strings.EqualFold(fields[1], "desc"):
			orderings = append(orderings, col.Desc())
		default:
			return fmt.Errorf("invalid direction %q", fields[1])
		}
	}
	s.query.Order(orderings...)
	_, _ = fmt.Fprintf(s.out, "  ORDER BY set (%d columns)\n", len(orderings))
	return nil
}

func (s *Session) cmdLimit(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("limit requires an integer, got %q", args)
	}
	s.query.Limit(n)
	_, _ = fmt.Fprintf(s.out, "  LIMIT set to %d\n", n)
	return nil
}

func (s *Session) cmdOffset(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("offset requires an integer, got %q", args)
	}
	s.query.Offset(n)
	_, _ = fmt.Fprintf(s.out, "  OFFSET set to %d\n", n)
	return nil
}

// cmdUnion pushes the current query as a union branch.
func (s *Session) cmdUnion(all bool) error {
	if s.query == nil {
		return errNoQuery
	}
	s.unions = append(s.unions, unionEntry{query: s.query, all: all})
	s.query = nil
	op := "UNION"
	if all {
		op = "UNION ALL"
	}
	_, _ = fmt.Fprintf(s.out, "  %s, start the next branch with 'from <table>'\n", op)
	return nil
}

// --- Common table expressions ---

// cmdWith pushes an expression. With "as <sql>" the body is raw SQL and
// the query being built is untouched; otherwise the current query and
// its union branches become the body.
func (s *Session) cmdWith(args string, recursive bool, hint nodes.Materialization) error {
	h, err := parseExprHeader(args)
	if err != nil {
		return fmt.Errorf("with: %w", err)
	}
	if h.cycle != nil && !recursive {
		return errors.New("with: cycle detection needs 'with recursive'")
	}
	entry := cteEntry{
		name:         h.name,
		columns:      h.columns,
		raw:          h.raw,
		recursive:    recursive,
		materialized: hint,
		cycle:        h.cycle,
	}
	if h.raw == "" {
		if s.query == nil {
			return errNoQuery
		}
		entry.branches, entry.last = s.unions, s.query
		s.unions, s.query = nil, nil
	}
	s.ctes = append(s.ctes, entry)

	kind := "expression"
	if recursive {
		kind = "recursive expression"
	}
	if h.raw == "" {
		_, _ = fmt.Fprintf(s.out, "  Pushed %s %q, start a new query with 'from <table>'\n", kind, h.name)
	} else {
		_, _ = fmt.Fprintf(s.out, "  Added %s %q\n", kind, h.name)
	}
	return nil
}

func (s *Session) cmdRecursionLimit(args string) error {
	arg := strings.ToLower(strings.TrimSpace(args))
	if arg == "off" {
		s.recursionLimit = nil
		_, _ = fmt.Fprintln(s.out, "  Recursion limit cleared")
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return fmt.Errorf("recursion-limit requires a non-negative integer or 'off', got %q", args)
	}
	s.recursionLimit = &n
	if n == nodes.UnlimitedRecursion {
		_, _ = fmt.Fprintln(s.out, "  Recursion unlimited")
	} else {
		_, _ = fmt.Fprintf(s.out, "  Recursion limit set to %d\n", n)
	}
	return nil
}

func (s *Session) cmdDrop(args string) error {
	name := strings.TrimSpace(args)
	for i, c := range s.ctes {
		if c.name == name {
			s.ctes = append(s.ctes[:i], s.ctes[i+1:]...)
			_, _ = fmt.Fprintf(s.out, "  Dropped expression %q\n", name)
			return nil
		}
	}
	if len(s.ctes) == 0 {
		return errNoExpression
	}
	return fmt.Errorf("no expression named %q", name)
}

func (s *Session) cmdExpressions() error {
	if len(s.ctes) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No expressions")
		return nil
	}
	for _, c := range s.ctes {
		var flags []string
		if c.recursive {
			flags = append(flags, "recursive")
		}
		switch c.materialized {
		case nodes.Materialized:
			flags = append(flags, "materialized")
		case nodes.NotMaterialized:
			flags = append(flags, "not materialized")
		}
		if c.cycle != nil {
			flags = append(flags, "cycle "+strings.Join(c.cycle.Columns, ", "))
		}
		body := "query"
		if c.raw != "" {
			body = "raw"
		}
		if len(c.branches) > 0 {
			body = fmt.Sprintf("union of %d queries", len(c.branches)+1)
		}
		line := fmt.Sprintf("  %s", c.name)
		if len(c.columns) > 0 {
			line += " (" + strings.Join(c.columns, ", ") + ")"
		}
		line += " [" + body
		if len(flags) > 0 {
			line += "; " + strings.Join(flags, "; ")
		}
		_, _ = fmt.Fprintln(s.out, line+"]")
	}
	return nil
}

// --- Output ---

func (s *Session) cmdSQL() error {
	sql, args, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	s.printStatement(sql, args)
	return nil
}

func (s *Session) printStatement(sql string, args []any) {
	_, _ = fmt.Fprintf(s.out, "  %s;\n", sql)
	if len(args) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", args)
	}
}

// cmdRun executes the current query, always with bound parameters.
func (s *Session) cmdRun(ctx context.Context) error {
	if s.conn == nil {
		return errNotConnected
	}
	m, err := s.assemble(true)
	if err != nil {
		return err
	}
	sql, args, err := m.ToSQL()
	if err != nil {
		return err
	}
	s.printStatement(sql, args)

	rows, err := m.Get(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	result, err := formatRows(rows)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(s.out, result)
	return nil
}

// --- Writes driven by the expressions ---

func (s *Session) writeTarget() (*managers.SelectManager, error) {
	if s.conn == nil {
		return nil, errNotConnected
	}
	if len(s.unions) > 0 {
		return nil, errors.New("writes cannot target a union")
	}
	return s.assemble(true)
}

// cmdInsertUsing handles "(<cols>) <sql>".
func (s *Session) cmdInsertUsing(ctx context.Context, args string) error {
	rest := strings.TrimSpace(args)
	closeIdx := strings.IndexByte(rest, ')')
	if !strings.HasPrefix(rest, "(") || closeIdx < 0 {
		return errors.New("usage: insert using (<col>, ...) <select sql>")
	}
	cols := splitList(rest[1:closeIdx])
	source := strings.TrimSpace(rest[closeIdx+1:])
	if len(cols) == 0 || source == "" {
		return errors.New("usage: insert using (<col>, ...) <select sql>")
	}
	m, err := s.writeTarget()
	if err != nil {
		return err
	}
	sql, args2, err := m.ToInsertUsingSQL(cols, source)
	if err != nil {
		return err
	}
	s.printStatement(sql, args2)
	n, err := m.InsertUsing(ctx, cols, source)
	return s.reportAffected(n, err)
}

// cmdUpdate handles "<col> = <value>[, ...]".
func (s *Session) cmdUpdate(ctx context.Context, args string, from bool) error {
	var values []*nodes.AssignmentNode
	for _, part := range splitList(args) {
		tokens := tokenize(part)
		if len(tokens) != 3 || tokens[1] != "=" || !isIdentifier(tokens[0]) {
			return fmt.Errorf("invalid assignment %q", part)
		}
		val, err := operand(tokens[2])
		if err != nil {
			return err
		}
		values = append(values, managers.Set(tokens[0], val))
	}
	if len(values) == 0 {
		return errors.New("usage: update set <col> = <value>[, ...]")
	}
	m, err := s.writeTarget()
	if err != nil {
		return err
	}

	toSQL, exec := m.ToUpdateSQL, m.Update
	if from {
		toSQL, exec = m.ToUpdateFromSQL, m.UpdateFrom
	}
	sql, args2, err := toSQL(values...)
	if err != nil {
		return err
	}
	s.printStatement(sql, args2)
	n, err := exec(ctx, values...)
	return s.reportAffected(n, err)
}

func (s *Session) cmdDelete(ctx context.Context) error {
	m, err := s.writeTarget()
	if err != nil {
		return err
	}
	sql, args, err := m.ToDeleteSQL()
	if err != nil {
		return err
	}
	s.printStatement(sql, args)
	n, err := m.Delete(ctx)
	return s.reportAffected(n, err)
}

func (s *Session) reportAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 1 {
		_, _ = fmt.Fprintln(s.out, "  1 row affected")
	} else {
		_, _ = fmt.Fprintf(s.out, "  %d rows affected\n", n)
	}
	return nil
}

// --- Session ---

func (s *Session) cmdDriver(args string) error {
	name := strings.ToLower(strings.TrimSpace(args))
	if s.conn != nil && name != s.conn.DriverName() {
		return fmt.Errorf("connected with %s, disconnect before switching driver", s.conn.DriverName())
	}
	if err := s.setDriver(name); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Driver set to %s\n", s.driver)
	return nil
}

func (s *Session) cmdDrivers() {
	for _, d := range visitors.Drivers() {
		marker := " "
		if d == s.driver {
			marker = "*"
		}
		_, _ = fmt.Fprintf(s.out, "  %s %s\n", marker, d)
	}
}

func (s *Session) cmdConnect(ctx context.Context, args string) error {
	dsn := strings.TrimSpace(args)
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	if err := s.connect(ctx, dsn); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Connected (%s)\n", s.driver)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errNotConnected
	}
	s.close()
	_, _ = fmt.Fprintln(s.out, "  Disconnected")
	return nil
}

func (s *Session) cmdParameterize() error {
	s.cfg.Params = !s.cfg.Params
	if err := s.setDriver(s.driver); err != nil {
		return err
	}
	if s.cfg.Params {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries disabled")
	}
	return nil
}

func (s *Session) cmdLegacyOffset() error {
	s.cfg.SQLServer.LegacyOffset = !s.cfg.SQLServer.LegacyOffset
	if err := s.setDriver(s.driver); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Legacy sqlsrv offset %s\n", onOff(s.cfg.SQLServer.LegacyOffset))
	return nil
}

func (s *Session) cmdStatus() {
	conn := "disconnected"
	if s.conn != nil {
		conn = "connected"
	}
	_, _ = fmt.Fprintf(s.out, "  Driver:     %s (%s)\n", s.driver, conn)
	_, _ = fmt.Fprintf(s.out, "  Params:     %s\n", onOff(s.cfg.Params))
	_, _ = fmt.Fprintf(s.out, "  Expression: %d pushed\n", len(s.ctes))
	_, _ = fmt.Fprintf(s.out, "  Unions:     %d pushed\n", len(s.unions))
	if s.recursionLimit != nil {
		_, _ = fmt.Fprintf(s.out, "  Recursion:  %d\n", *s.recursionLimit)
	}
	if names := s.plugins.names(); len(names) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Plugins:    %s\n", strings.Join(names, ", "))
	}
}

func (s *Session) cmdReset() error {
	s.query = nil
	s.unions = nil
	s.ctes = nil
	s.recursionLimit = nil
	_, _ = fmt.Fprintln(s.out, "  Query cleared")
	return nil
}

// cmdPlugin enables a plugin by name, or dispatches to cmdPluginOff.
func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(strings.TrimSpace(args))
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	c, ok := s.configurer(name)
	if !ok {
		return fmt.Errorf("unknown plugin: %s", name)
	}
	return c.configure(s, strings.TrimSpace(strings.TrimSpace(args)[len(parts[0]):]))
}

func (s *Session) cmdPluginOff(parts []string) error {
	if len(parts) == 0 {
		s.plugins.deregisterAll()
		_, _ = fmt.Fprintln(s.out, "  All plugins disabled")
		return nil
	}
	name := strings.ToLower(parts[0])
	if !s.plugins.deregister(name) {
		return fmt.Errorf("plugin %q is not enabled", name)
	}
	_, _ = fmt.Fprintf(s.out, "  %s disabled\n", name)
	return nil
}

func (s *Session) cmdPlugins() {
	_, _ = fmt.Fprintln(s.out, "  Available plugins:")
	for _, c := range s.configurers {
		if entry, ok := s.plugins.get(c.name); ok {
			_, _ = fmt.Fprintf(s.out, "    %-14s on   (%s)\n", c.name, entry.status())
		} else {
			_, _ = fmt.Fprintf(s.out, "    %-14s off\n", c.name)
		}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Query Building:
    from <table>                    Start a new query
    select <cols>                   Set projections (col, t.col, *, t.*, raw expressions)
    distinct                        Enable DISTINCT
    where <condition>               Add a condition (=, !=, <, <=, >, >=, like, in, between, is null, joined by and)
    where raw <sql>                 Add a raw condition
    join <t> on <a> = <b>           Add an INNER JOIN
    left join <t> on <a> = <b>      Add a LEFT OUTER JOIN
    group <cols>                    Set GROUP BY
    order <col> [asc|desc], ...     Add ORDER BY
    limit <n> / offset <n>          Set LIMIT / OFFSET
    union / union all               Push the current query as a union branch

  Expressions:
    with <name> [(cols)] [as <sql>]             Push the current query (or raw SQL) as an expression
    with recursive <name> [(cols)] [cycle <cols> [set <mark> using <path>]] [as <sql>]
    with materialized <name> [(cols)] [as <sql>]
    with not materialized <name> [(cols)] [as <sql>]
    recursion-limit <n>|off         Set the recursion limit (0 = unlimited, sqlsrv only)
    expressions                     List pushed expressions
    drop <name>                     Remove a pushed expression

  Output and execution:
    sql                             Render the statement for the current driver
    run                             Execute the statement and print rows
    insert using (<cols>) <sql>     Insert the rows of <sql>, prefixed by the expressions
    update set <col> = <v>, ...     Update the current query's rows
    update from set <col> = <v>     Update joined rows (pgsql only)
    delete                          Delete the current query's rows

  Session:
    driver <name> / drivers         Switch or list drivers
    connect <dsn> / disconnect      Manage the database connection
    params                          Toggle ? placeholders for sql output
    legacy-offset                   Toggle row_number() pagination for sqlsrv
    plugin softdelete [args]        Enable soft-delete filtering
    plugin off [name] / plugins     Disable or list plugins
    status                          Show session state
    reset                           Clear the query, unions and expressions
    help                            Show this help
    exit / quit                     Leave the shell`)
}
