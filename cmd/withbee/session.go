package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bawdo/withbee/db"
	"github.com/bawdo/withbee/internal/config"
	"github.com/bawdo/withbee/managers"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

var (
	errNoQuery      = errors.New("no query defined (use 'from <table>' first)")
	errNotConnected = errors.New("not connected (use 'connect <dsn>' first)")
	errNoExpression = errors.New("no expression defined (use 'with <name>' first)")
)

// unionEntry is a pushed union branch and the operator that joins it to
// the next branch.
type unionEntry struct {
	query *managers.SelectManager
	all   bool
}

// cteEntry is a pushed common table expression. Its body is either raw
// SQL or a chain of union branches ending in last.
type cteEntry struct {
	name         string
	columns      []string
	raw          string
	branches     []unionEntry
	last         *managers.SelectManager
	recursive    bool
	materialized nodes.Materialization
	cycle        *nodes.CycleSpec
}

// Session holds the shell state: the driver, the query being built, the
// pushed expressions and union branches, and the enabled plugins.
type Session struct {
	// cfg carries the live params and legacy offset toggles.
	cfg     config.Config
	driver  string
	grammar visitors.Grammar

	query          *managers.SelectManager
	unions         []unionEntry
	ctes           []cteEntry
	recursionLimit *int

	plugins     pluginRegistry
	configurers []pluginConfigurer
	commands    []commandEntry

	conn   *db.Conn
	logger *slog.Logger
	out    io.Writer
}

// NewSession creates a session from cfg. A nil logger discards output.
func NewSession(cfg *config.Config, logger *slog.Logger, out io.Writer) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		cfg:    *cfg,
		logger: logger,
		out:    out,
	}
	s.configurers = []pluginConfigurer{
		{name: "softdelete", configure: configureSoftdelete},
	}
	if err := s.setDriver(cfg.Driver); err != nil {
		_ = s.setDriver(config.DefaultDriver)
	}
	s.initCommands()
	return s
}

// pluginNames returns the names of all known plugins.
func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

// grammarOptions derives the grammar options from the session settings.
// Executed statements always bind their values.
func (s *Session) grammarOptions(forExec bool) []visitors.Option {
	cfg := s.cfg
	if forExec {
		cfg.Params = true
	}
	return cfg.GrammarOptions()
}

func (s *Session) setDriver(name string) error {
	g, err := visitors.ForDriver(name, s.grammarOptions(false)...)
	if err != nil {
		return err
	}
	s.driver = g.Driver()
	s.grammar = g
	return nil
}

// Execute parses and runs a single shell command.
func (s *Session) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(ctx, line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler(ctx, "")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// GenerateSQL compiles the current query with every pushed expression.
func (s *Session) GenerateSQL() (string, []any, error) {
	m, err := s.assemble(false)
	if err != nil {
		return "", nil, err
	}
	return m.ToSQL()
}

// newManager creates a manager for the session's driver, bound to the
// connection when there is one, with the enabled plugins registered.
func (s *Session) newManager(from nodes.Node, forExec bool) (*managers.SelectManager, error) {
	opts := s.grammarOptions(forExec)
	var m *managers.SelectManager
	if s.conn != nil {
		q, err := managers.NewQuery(s.conn, from, opts...)
		if err != nil {
			return nil, err
		}
		m = q
	} else {
		g, err := visitors.ForDriver(s.driver, opts...)
		if err != nil {
			return nil, err
		}
		m = managers.NewSelectManager(g, from)
	}
	s.plugins.applyTo(m)
	return m, nil
}

// snapshot copies q into a fresh manager so assembling never mutates the
// session's own queries.
func (s *Session) snapshot(q *managers.SelectManager, forExec bool) (*managers.SelectManager, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	m, err := s.newManager(nil, forExec)
	if err != nil {
		return nil, err
	}
	m.Core = q.Core.Clone()
	return m, nil
}

// chain joins branches and last into one manager.
func (s *Session) chain(branches []unionEntry, last *managers.SelectManager, forExec bool) (*managers.SelectManager, error) {
	if len(branches) == 0 {
		return s.snapshot(last, forExec)
	}
	root, err := s.snapshot(branches[0].query, forExec)
	if err != nil {
		return nil, err
	}
	for i, b := range branches {
		next := last
		if i+1 < len(branches) {
			next = branches[i+1].query
		}
		branch, err := s.snapshot(next, forExec)
		if err != nil {
			return nil, err
		}
		if b.all {
			root.UnionAll(branch)
		} else {
			root.Union(branch)
		}
	}
	return root, nil
}

// assemble builds the statement the session describes.
func (s *Session) assemble(forExec bool) (*managers.SelectManager, error) {
	if s.query == nil {
		return nil, errNoQuery
	}
	m, err := s.chain(s.unions, s.query, forExec)
	if err != nil {
		return nil, err
	}
	for _, cte := range s.ctes {
		var body any = cte.raw
		if cte.last != nil {
			b, err := s.chain(cte.branches, cte.last, forExec)
			if err != nil {
				return nil, fmt.Errorf("expression %q: %w", cte.name, err)
			}
			body = b
		}
		m.WithExpression(cte.name, body, cte.options()...)
	}
	if s.recursionLimit != nil {
		m.RecursionLimit(*s.recursionLimit)
	}
	return m, m.Err()
}

func (c cteEntry) options() []managers.ExpressionOption {
	var opts []managers.ExpressionOption
	if len(c.columns) > 0 {
		opts = append(opts, managers.Columns(c.columns...))
	}
	if c.recursive {
		opts = append(opts, managers.Recursive())
	}
	if c.materialized != nodes.MaterializeDefault {
		opts = append(opts, managers.Materialized(c.materialized))
	}
	if c.cycle != nil {
		opts = append(opts, managers.Cycle(*c.cycle))
	}
	return opts
}

// connect opens dsn with the session's driver.
func (s *Session) connect(ctx context.Context, dsn string) error {
	conn, err := db.Open(ctx, db.Config{
		Driver:           s.driver,
		DSN:              dsn,
		StatementTimeout: s.cfg.StatementTimeout,
	}, s.logger)
	if err != nil {
		return err
	}
	s.close()
	s.conn = conn
	return nil
}

func (s *Session) close() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("close failed", slog.Any("error", err))
		}
		s.conn = nil
	}
}

// names returns the tables and expression names the session knows,
// for completion.
func (s *Session) names() []string {
	var names []string
	add := func(q *managers.SelectManager) {
		if q != nil {
			if name := nodes.RelationName(q.Core.From); name != "" {
				names = append(names, name)
			}
		}
	}
	add(s.query)
	for _, u := range s.unions {
		add(u.query)
	}
	for _, c := range s.ctes {
		names = append(names, c.name)
		add(c.last)
		for _, b := range c.branches {
			add(b.query)
		}
	}
	return dedup(names)
}
