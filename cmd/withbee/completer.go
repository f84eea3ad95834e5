package main

import (
	"sort"
	"strings"

	"github.com/bawdo/withbee/visitors"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand   completionContext = iota // start of line or partial command
	contextName                               // table or expression name
	contextDriver                             // after driver
	contextPlugin                             // after plugin
	contextPluginOff                          // after plugin off
)

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of runes before pos that form the prefix being
// completed; newLine holds the suffix to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	ctx, prefix := c.parseContext(string(line[:pos]))

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextName:
		candidates = c.completeNames(prefix)
	case contextDriver:
		candidates = filterPrefix(visitors.Drivers(), prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	}

	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to the cursor and determines what
// kind of completion is needed and the prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue
		}
		if strings.HasPrefix(lower, cmd.prefix) && cmd.completer != nil {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// completeNames offers the session's table and expression names, and
// name.* once a qualifier has been typed.
func (c *replCompleter) completeNames(prefix string) []string {
	names := c.sess.names()
	sort.Strings(names)
	if table, _, ok := strings.Cut(prefix, "."); ok {
		return filterPrefix([]string{table + ".*"}, prefix)
	}
	return filterPrefix(names, prefix)
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings, keeping first occurrences.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the text after the last space, tab or comma.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t"); i >= 0 {
		return s[i+1:]
	}
	return s
}
