package main

import (
	"reflect"
	"testing"

	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

// --- Tokenizer ---

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  []string
	}{
		{"users.age > 18", []string{"users.age", ">", "18"}},
		{"name = 'John Smith'", []string{"name", "=", "'John Smith'"}},
		{"name = 'O''Brien'", []string{"name", "=", "'O''Brien'"}},
		{"a != b", []string{"a", "!=", "b"}},
		{"a <> b", []string{"a", "<>", "b"}},
		{"a>=b", []string{"a", ">=", "b"}},
		{"a <= b", []string{"a", "<=", "b"}},
		{"id in (1, 2)", []string{"id", "in", "(", "1", ",", "2", ")"}},
	}
	for _, tt := range tests {
		if got := tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokenize(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token string
		want  any
	}{
		{"'hello'", "hello"},
		{"'it''s'", "it's"},
		{"42", 42},
		{"3.5", 3.5},
		{"TRUE", true},
		{"false", false},
		{"null", nil},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.token)
		testutil.AssertNoError(t, err)
		if got != tt.want {
			t.Errorf("parseValue(%q): expected %v, got %v", tt.token, tt.want, got)
		}
	}

	if _, err := parseValue("users"); err == nil {
		t.Error("expected error for bare word")
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"users", "users.id", "_tmp", "t1"} {
		if !isIdentifier(ok) {
			t.Errorf("expected %q to be an identifier", ok)
		}
	}
	for _, bad := range []string{"", "1abc", "'x'", "null", "a-b", "count(*)"} {
		if isIdentifier(bad) {
			t.Errorf("expected %q not to be an identifier", bad)
		}
	}
}

// --- Conditions ---

func TestParseCondition(t *testing.T) {
	t.Parallel()
	v := visitors.NewPostgresGrammar(visitors.WithoutParams())
	tests := []struct {
		input string
		want  string
	}{
		{"age > 18", `"age" > 18`},
		{"users.name = 'bee'", `"users"."name" = 'bee'`},
		{"a.id = b.a_id", `"a"."id" = "b"."a_id"`},
		{"n != 1", `"n" != 1`},
		{"name like 'a%'", `"name" like 'a%'`},
		{"deleted_at is null", `"deleted_at" is null`},
		{"deleted_at is not null", `"deleted_at" is not null`},
		{"age between 1 and 5", `"age" between 1 and 5`},
		{"age between 1 and 5 and active = true", `"age" between 1 and 5 and "active" = true`},
		{"a = 1 and b = 2 and c = 3", `"a" = 1 and "b" = 2 and "c" = 3`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			node, err := parseCondition(tt.input)
			testutil.AssertNoError(t, err)
			testutil.AssertSQL(t, v, node, tt.want)
		})
	}
}

func TestParseConditionIn(t *testing.T) {
	t.Parallel()
	node, err := parseCondition("id in (1, 2, 3)")
	testutil.AssertNoError(t, err)
	in, ok := node.(*nodes.InNode)
	if !ok {
		t.Fatalf("expected *nodes.InNode, got %T", node)
	}
	testutil.AssertEqual(t, len(in.Vals), 3)
	testutil.AssertEqual(t, in.Negate, false)

	node, err = parseCondition("id not in (1)")
	testutil.AssertNoError(t, err)
	in, ok = node.(*nodes.InNode)
	if !ok || !in.Negate {
		t.Errorf("expected negated InNode, got %#v", node)
	}
}

func TestParseConditionErrors(t *testing.T) {
	t.Parallel()
	for _, input := range []string{
		"",
		"age",
		"18 = age",
		"age ~ 3",
		"age = 1 2",
		"age is maybe",
		"age between 1",
		"id in ()",
		"name not between 1 and 2",
	} {
		if _, err := parseCondition(input); err == nil {
			t.Errorf("parseCondition(%q): expected error", input)
		}
	}
}

// --- Expression headers ---

func TestParseExprHeader(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  exprHeader
	}{
		{"u", exprHeader{name: "u"}},
		{"u (a, b)", exprHeader{name: "u", columns: []string{"a", "b"}}},
		{"u as select 1", exprHeader{name: "u", raw: "select 1"}},
		{"u(a) AS select a from t", exprHeader{name: "u", columns: []string{"a"}, raw: "select a from t"}},
		{"tree cycle id", exprHeader{name: "tree", cycle: &nodes.CycleSpec{Columns: []string{"id"}}}},
		{
			"tree (id, p) cycle id, p set seen using trail as select 1",
			exprHeader{
				name:    "tree",
				columns: []string{"id", "p"},
				cycle:   &nodes.CycleSpec{Columns: []string{"id", "p"}, MarkColumn: "seen", PathColumn: "trail"},
				raw:     "select 1",
			},
		},
	}
	for _, tt := range tests {
		got, err := parseExprHeader(tt.input)
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseExprHeader(%q): expected %+v, got %+v", tt.input, tt.want, got)
		}
	}
}

func TestParseExprHeaderErrors(t *testing.T) {
	t.Parallel()
	for _, input := range []string{
		"",
		"1abc",
		"u (a, b",
		"tree cycle",
		"tree cycle id set seen as select 1",
	} {
		if _, err := parseExprHeader(input); err == nil {
			t.Errorf("parseExprHeader(%q): expected error", input)
		}
	}
}
