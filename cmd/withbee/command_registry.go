package main

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bawdo/withbee/nodes"
)

// commandEntry maps a shell prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(ctx context.Context, args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(context.Context, string) error { return s.cmdSQL() }},
		{prefix: "tosql", handler: func(context.Context, string) error { return s.cmdSQL() }, hidden: true},
		{prefix: "reset", handler: func(context.Context, string) error { return s.cmdReset() }},
		{prefix: "status", handler: func(context.Context, string) error { s.cmdStatus(); return nil }},
		{prefix: "help", handler: func(context.Context, string) error { s.cmdHelp(); return nil }},

		// --- query building ---
		{prefix: "from ", handler: func(_ context.Context, a string) error { return s.cmdFrom(a) }, completer: completeNameArgs},
		{prefix: "select ", handler: func(_ context.Context, a string) error { return s.cmdSelect(a) }, completer: completeColumnArgs},
		{prefix: "distinct", handler: func(context.Context, string) error { return s.cmdDistinct() }},
		{prefix: "where raw ", handler: func(_ context.Context, a string) error { return s.cmdWhereRaw(a) }},
		{prefix: "where ", handler: func(_ context.Context, a string) error { return s.cmdWhere(a) }, completer: completeColumnArgs},
		{prefix: "left join ", handler: func(_ context.Context, a string) error { return s.cmdJoin(a, nodes.LeftOuterJoin) }, completer: completeJoinArgs},
		{prefix: "join ", handler: func(_ context.Context, a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs},
		{prefix: "group ", handler: func(_ context.Context, a string) error { return s.cmdGroup(a) }, completer: completeColumnArgs},
		{prefix: "order ", handler: func(_ context.Context, a string) error { return s.cmdOrder(a) }, completer: completeColumnArgs},
		{prefix: "limit ", handler: func(_ context.Context, a string) error { return s.cmdLimit(a) }},
		{prefix: "take ", handler: func(_ context.Context, a string) error { return s.cmdLimit(a) }, hidden: true},
		{prefix: "offset ", handler: func(_ context.Context, a string) error { return s.cmdOffset(a) }},

		// --- set operations ---
		{prefix: "union all", handler: func(context.Context, string) error { return s.cmdUnion(true) }},
		{prefix: "union", handler: func(context.Context, string) error { return s.cmdUnion(false) }},

		// --- expressions ---
		{prefix: "with not materialized ", handler: func(_ context.Context, a string) error {
			return s.cmdWith(a, false, nodes.NotMaterialized)
		}},
		{prefix: "with materialized ", handler: func(_ context.Context, a string) error {
			return s.cmdWith(a, false, nodes.Materialized)
		}},
		{prefix: "with recursive ", handler: func(_ context.Context, a string) error {
			return s.cmdWith(a, true, nodes.MaterializeDefault)
		}},
		{prefix: "with ", handler: func(_ context.Context, a string) error {
			return s.cmdWith(a, false, nodes.MaterializeDefault)
		}},
		{prefix: "recursion-limit ", handler: func(_ context.Context, a string) error { return s.cmdRecursionLimit(a) }},
		{prefix: "expressions", handler: func(context.Context, string) error { return s.cmdExpressions() }},
		{prefix: "drop ", handler: func(_ context.Context, a string) error { return s.cmdDrop(a) }, completer: completeNameArgs},

		// --- execution ---
		{prefix: "run", handler: func(ctx context.Context, _ string) error { return s.cmdRun(ctx) }},
		{prefix: "exec", handler: func(ctx context.Context, _ string) error { return s.cmdRun(ctx) }, hidden: true},
		{prefix: "insert using ", handler: func(ctx context.Context, a string) error { return s.cmdInsertUsing(ctx, a) }},
		{prefix: "update from set ", handler: func(ctx context.Context, a string) error { return s.cmdUpdate(ctx, a, true) }, completer: completeColumnArgs},
		{prefix: "update set ", handler: func(ctx context.Context, a string) error { return s.cmdUpdate(ctx, a, false) }, completer: completeColumnArgs},
		{prefix: "delete", handler: func(ctx context.Context, _ string) error { return s.cmdDelete(ctx) }},

		// --- database connectivity ---
		{prefix: "connect ", handler: func(ctx context.Context, a string) error { return s.cmdConnect(ctx, a) }},
		{prefix: "connect", handler: func(ctx context.Context, _ string) error { return s.cmdConnect(ctx, "") }},
		{prefix: "disconnect", handler: func(context.Context, string) error { return s.cmdDisconnect() }},

		// --- driver / rendering ---
		{prefix: "driver ", handler: func(_ context.Context, a string) error { return s.cmdDriver(a) }, completer: completeDriverArgs},
		{prefix: "driver", handler: func(context.Context, string) error { return errors.New("usage: driver <name>") }},
		{prefix: "drivers", handler: func(context.Context, string) error { s.cmdDrivers(); return nil }},
		{prefix: "params", handler: func(context.Context, string) error { return s.cmdParameterize() }},
		{prefix: "parameterize", handler: func(context.Context, string) error { return s.cmdParameterize() }, hidden: true},
		{prefix: "legacy-offset", handler: func(context.Context, string) error { return s.cmdLegacyOffset() }},

		// --- plugins ---
		{prefix: "plugin ", handler: func(_ context.Context, a string) error { return s.cmdPlugin(a) }, completer: completePluginArgs},
		{prefix: "plugins", handler: func(context.Context, string) error { s.cmdPlugins(); return nil }},
	}

	// Longest prefixes match first.
	sort.Slice(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the read loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Shared completion helpers ---

// completeJoinArgs completes the table, then column refs after ON.
func completeJoinArgs(args string) (completionContext, string) {
	if !strings.Contains(args, " ") {
		return contextName, args
	}
	if strings.HasSuffix(args, " ") {
		return contextCommand, ""
	}
	return contextName, lastToken(args)
}

// completeNameArgs completes a single table or expression name.
func completeNameArgs(args string) (completionContext, string) {
	arg := strings.TrimSpace(args)
	if strings.Contains(arg, " ") {
		return contextCommand, ""
	}
	return contextName, arg
}

// completeColumnArgs completes qualified column refs against known names.
func completeColumnArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		return contextName, ""
	}
	return contextName, lastToken(args)
}

func completeDriverArgs(args string) (completionContext, string) {
	return contextDriver, strings.TrimSpace(args)
}

// completePluginArgs completes plugin names, or after "off" the names of
// enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextCommand, ""
}
