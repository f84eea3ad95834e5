package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bawdo/withbee/visitors"
)

func TestPlaceholderFor(t *testing.T) {
	tests := map[string]Placeholder{
		visitors.DriverPostgres:    Dollar,
		visitors.DriverSQLServer:   AtP,
		visitors.DriverOracle:      Colon,
		visitors.DriverMySQL:       Question,
		visitors.DriverMariaDB:     Question,
		visitors.DriverSingleStore: Question,
		visitors.DriverSQLite:      Question,
		visitors.DriverFirebird:    Question,
	}
	for driver, want := range tests {
		assert.Equal(t, want, PlaceholderFor(driver), driver)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		style Placeholder
		query string
		want  string
	}{
		{"question untouched", Question, "select ? , ?", "select ? , ?"},
		{"no placeholders", Dollar, "select 1", "select 1"},
		{"dollar", Dollar, "a = ? and b = ?", "a = $1 and b = $2"},
		{"string literal", Dollar, "a = '?' and b = ?", "a = '?' and b = $1"},
		{"escaped quote", Dollar, "a = 'it''s ?' and b = ?", "a = 'it''s ?' and b = $1"},
		{"double quoted identifier", Dollar, `"we?ird" = ?`, `"we?ird" = $1`},
		{"backtick identifier", AtP, "`a?` = ?", "`a?` = @p1"},
		{"bracket identifier", AtP, "[a?]]b] = ?", "[a?]]b] = @p1"},
		{"line comment", Colon, "select ? -- why?\nfrom t where x = ?", "select :1 -- why?\nfrom t where x = :2"},
		{"block comment", Colon, "select /* ? */ ?", "select /* ? */ :1"},
		{"unterminated literal", Dollar, "select '?", "select '?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.style, tt.query))
		})
	}
}
