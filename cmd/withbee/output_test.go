package main

import (
	"testing"

	"github.com/bawdo/withbee/internal/testutil"
)

func TestFormatTable(t *testing.T) {
	t.Parallel()
	got := formatTable([]string{"id", "name"}, [][]string{{"1", "root"}, {"20", "NULL"}})
	want := "" +
		"+----+------+\n" +
		"| id | name |\n" +
		"+----+------+\n" +
		"| 1  | root |\n" +
		"| 20 | NULL |\n" +
		"+----+------+\n" +
		"(2 rows)\n"
	testutil.AssertEqual(t, got, want)
}

func TestFormatTableSingleRow(t *testing.T) {
	t.Parallel()
	got := formatTable([]string{"n"}, [][]string{{"1"}})
	testutil.AssertEqual(t, got, "+---+\n| n |\n+---+\n| 1 |\n+---+\n(1 row)\n")
}

func TestFormatTableNoColumns(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, formatTable(nil, nil), "(0 rows)\n")
}
