package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/withbee/nodes"
)

// tokenize splits input into tokens, respecting single-quoted strings
// and recognising the comparison operators and punctuation.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true
		case ch == '(' || ch == ')' || ch == ',':
			flush()
			tokens = append(tokens, string(ch))
		case (ch == '!' || ch == '<' || ch == '>') && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, input[i:i+2])
			i++
		case ch == '<' && i+1 < len(input) && input[i+1] == '>':
			flush()
			tokens = append(tokens, "<>")
			i++
		case ch == '=' || ch == '<' || ch == '>':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a token to a Go value suitable for nodes.Literal.
func parseValue(token string) (any, error) {
	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		return strings.ReplaceAll(token[1:len(token)-1], "''", "'"), nil
	}
	if i, err := strconv.Atoi(token); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

// isIdentifier reports whether token is a (possibly dotted) column or
// table name.
func isIdentifier(token string) bool {
	if token == "" || (token[0] >= '0' && token[0] <= '9') {
		return false
	}
	for i := 0; i < len(token); i++ {
		ch := token[i]
		if ch != '_' && ch != '.' && !(ch >= 'a' && ch <= 'z') && !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	switch strings.ToLower(token) {
	case "true", "false", "null":
		return false
	}
	return true
}

// operand returns a column for identifiers and a literal otherwise.
func operand(token string) (any, error) {
	if isIdentifier(token) {
		return nodes.Column(token), nil
	}
	return parseValue(token)
}

func comparisonOp(token string) (nodes.ComparisonOp, bool) {
	switch strings.ToLower(token) {
	case "=":
		return nodes.OpEq, true
	case "!=", "<>":
		return nodes.OpNotEq, true
	case ">":
		return nodes.OpGt, true
	case ">=":
		return nodes.OpGtEq, true
	case "<":
		return nodes.OpLt, true
	case "<=":
		return nodes.OpLtEq, true
	case "like":
		return nodes.OpLike, true
	default:
		return 0, false
	}
}

// parseCondition parses conditions joined by "and", such as
// "users.age > 18 and users.name like 'a%'".
func parseCondition(input string) (nodes.Node, error) {
	tokens := tokenize(input)
	if len(tokens) == 0 {
		return nil, errors.New("empty condition")
	}
	var conds []nodes.Node
	for _, part := range splitAnd(tokens) {
		cond, err := parseSingleCondition(part)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return nodes.And(conds...), nil
}

// splitAnd splits tokens on top-level "and", leaving the "and" of
// "between x and y" in place.
func splitAnd(tokens []string) [][]string {
	var parts [][]string
	var cur []string
	depth := 0
	between := false
	for _, t := range tokens {
		lower := strings.ToLower(t)
		switch {
		case t == "(":
			depth++
		case t == ")":
			depth--
		case lower == "between":
			between = true
		case lower == "and" && depth == 0 && between:
			between = false
		case lower == "and" && depth == 0:
			parts = append(parts, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return append(parts, cur)
}

func parseSingleCondition(tokens []string) (nodes.Node, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("incomplete condition: %s", strings.Join(tokens, " "))
	}
	if !isIdentifier(tokens[0]) {
		return nil, fmt.Errorf("expected a column, got %q", tokens[0])
	}
	col := nodes.Column(tokens[0])
	rest := tokens[1:]

	switch strings.ToLower(rest[0]) {
	case "is":
		return parseIsCondition(col, rest[1:])
	case "in":
		return parseInCondition(col, rest[1:], false)
	case "between":
		return parseBetweenCondition(col, rest[1:])
	case "not":
		return parseNotCondition(col, rest[1:])
	}

	op, ok := comparisonOp(rest[0])
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", rest[0])
	}
	if len(rest) != 2 {
		return nil, fmt.Errorf("expected one value after %s", rest[0])
	}
	val, err := operand(rest[1])
	if err != nil {
		return nil, err
	}
	return nodes.NewComparisonNode(col, nodes.Literal(val), op), nil
}

func parseIsCondition(col *nodes.Attribute, tokens []string) (nodes.Node, error) {
	switch {
	case len(tokens) == 1 && strings.EqualFold(tokens[0], "null"):
		return col.IsNull(), nil
	case len(tokens) == 2 && strings.EqualFold(tokens[0], "not") && strings.EqualFold(tokens[1], "null"):
		return col.IsNotNull(), nil
	}
	return nil, errors.New("expected NULL or NOT NULL after IS")
}

func parseNotCondition(col *nodes.Attribute, tokens []string) (nodes.Node, error) {
	if len(tokens) == 0 {
		return nil, errors.New("expected IN or LIKE after NOT")
	}
	switch strings.ToLower(tokens[0]) {
	case "in":
		return parseInCondition(col, tokens[1:], true)
	case "like":
		if len(tokens) != 2 {
			return nil, errors.New("expected one value after NOT LIKE")
		}
		val, err := parseValue(tokens[1])
		if err != nil {
			return nil, err
		}
		return col.NotLike(val), nil
	default:
		return nil, fmt.Errorf("expected IN or LIKE after NOT, got %s", tokens[0])
	}
}

func parseInCondition(col *nodes.Attribute, tokens []string, negate bool) (nodes.Node, error) {
	var vals []any
	for _, t := range tokens {
		if t == "(" || t == ")" || t == "," {
			continue
		}
		val, err := parseValue(t)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	if len(vals) == 0 {
		return nil, errors.New("IN requires at least one value")
	}
	if negate {
		return col.NotIn(vals...), nil
	}
	return col.In(vals...), nil
}

func parseBetweenCondition(col *nodes.Attribute, tokens []string) (nodes.Node, error) {
	if len(tokens) != 3 || !strings.EqualFold(tokens[1], "and") {
		return nil, errors.New("expected: BETWEEN <low> AND <high>")
	}
	low, err := parseValue(tokens[0])
	if err != nil {
		return nil, err
	}
	high, err := parseValue(tokens[2])
	if err != nil {
		return nil, err
	}
	return col.Between(low, high), nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// exprHeader is the parsed head of a with command:
// name [(col, ...)] [cycle col, ... [set mark using path]] [as <sql>].
type exprHeader struct {
	name    string
	columns []string
	cycle   *nodes.CycleSpec
	raw     string
}

func parseExprHeader(args string) (exprHeader, error) {
	var h exprHeader
	rest := strings.TrimSpace(args)

	if idx := indexWord(rest, "as"); idx >= 0 {
		h.raw = strings.TrimSpace(rest[idx+len(" as "):])
		rest = strings.TrimSpace(rest[:idx])
		if h.raw == "" {
			return h, errors.New("missing query after AS")
		}
	}
	if idx := indexWord(rest, "cycle"); idx >= 0 {
		spec, err := parseCycle(rest[idx+len(" cycle "):])
		if err != nil {
			return h, err
		}
		h.cycle = &spec
		rest = strings.TrimSpace(rest[:idx])
	}
	if open := strings.IndexByte(rest, '('); open >= 0 {
		if !strings.HasSuffix(rest, ")") {
			return h, errors.New("unterminated column list")
		}
		h.columns = splitList(rest[open+1 : len(rest)-1])
		rest = strings.TrimSpace(rest[:open])
	}
	if !isIdentifier(rest) {
		return h, fmt.Errorf("invalid expression name %q", rest)
	}
	h.name = rest
	return h, nil
}

// parseCycle parses "col, ... [set mark using path]".
func parseCycle(s string) (nodes.CycleSpec, error) {
	var spec nodes.CycleSpec
	cols := s
	if idx := indexWord(" "+s, "set"); idx >= 0 {
		cols = s[:idx]
		fields := strings.Fields(s[idx:])
		if len(fields) != 4 || !strings.EqualFold(fields[2], "using") {
			return spec, errors.New("expected: cycle <cols> set <mark> using <path>")
		}
		spec.MarkColumn, spec.PathColumn = fields[1], fields[3]
	}
	spec.Columns = splitList(cols)
	if len(spec.Columns) == 0 {
		return spec, errors.New("cycle requires at least one column")
	}
	return spec, nil
}

// indexWord returns the index of the space before the first
// space-delimited, case-insensitive occurrence of word in s, or -1.
func indexWord(s, word string) int {
	return strings.Index(strings.ToLower(s), " "+word+" ")
}
