package db

import (
	"strconv"
	"strings"

	"github.com/bawdo/withbee/visitors"
)

// Placeholder is a driver's positional parameter syntax.
type Placeholder int

const (
	Question Placeholder = iota // ?
	Dollar                      // $1
	AtP                         // @p1
	Colon                       // :1
)

// PlaceholderFor returns the parameter syntax of a driver identifier.
func PlaceholderFor(driver string) Placeholder {
	switch driver {
	case visitors.DriverPostgres:
		return Dollar
	case visitors.DriverSQLServer:
		return AtP
	case visitors.DriverOracle:
		return Colon
	default:
		return Question
	}
}

// Rebind rewrites the ? placeholders of query into style p. Question
// marks inside string literals, quoted identifiers and comments are
// left alone.
func Rebind(p Placeholder, query string) string {
	if p == Question || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := closing(query, i, ch)
			b.WriteString(query[i:end])
			i = end - 1
		case ch == '[':
			end := closing(query, i, ']')
			b.WriteString(query[i:end])
			i = end - 1
		case ch == '-' && strings.HasPrefix(query[i:], "--"):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			b.WriteString(query[i : i+end])
			i += end - 1
		case ch == '/' && strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query) - i
			} else {
				end += 4
			}
			b.WriteString(query[i : i+end])
			i += end - 1
		case ch == '?':
			n++
			b.WriteString(marker(p))
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// closing returns the index just past the quote that closes the one at
// start. A doubled quote is an escaped quote.
func closing(query string, start int, quote byte) int {
	for i := start + 1; i < len(query); i++ {
		if query[i] != quote {
			continue
		}
		if i+1 < len(query) && query[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(query)
}

func marker(p Placeholder) string {
	switch p {
	case Dollar:
		return "$"
	case AtP:
		return "@p"
	default:
		return ":"
	}
}
