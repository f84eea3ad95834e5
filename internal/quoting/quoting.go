// Package quoting provides identifier and string quoting for each dialect family.
package quoting

import "strings"

// Quoter quotes a single identifier.
type Quoter func(string) string

// DoubleQuote quotes an identifier with double quotes (Postgres, SQLite,
// Oracle, Firebird). Internal double quotes are doubled.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes an identifier with backticks (MySQL, MariaDB,
// SingleStore). Internal backticks are doubled.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Bracket quotes an identifier with square brackets (SQL Server).
// Closing brackets are doubled.
func Bracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// Columnize quotes each name with q and joins them with ", ".
func Columnize(q Quoter, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = q(n)
	}
	return strings.Join(quoted, ", ")
}

// EscapeString escapes a string literal for SQL by doubling single quotes
// and escaping backslashes.
//
// SECURITY: only used when a grammar is built WithoutParams for debugging.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}
