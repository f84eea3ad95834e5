package plugins

import (
	"testing"

	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/nodes"
)

func refNames(refs []TableRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}

func TestCollectTablesFromTable(t *testing.T) {
	t.Parallel()
	users := nodes.NewTable("users")
	refs := CollectTables(&nodes.SelectCore{From: users})
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	testutil.AssertEqual(t, refs[0].Name, "users")
	if refs[0].Relation != users {
		t.Error("expected relation to be the table")
	}
}

func TestCollectTablesFromAlias(t *testing.T) {
	t.Parallel()
	u := nodes.NewTable("users").Alias("u")
	refs := CollectTables(&nodes.SelectCore{From: u})
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	testutil.AssertEqual(t, refs[0].Name, "users")
	if refs[0].Relation != u {
		t.Error("expected relation to be the alias")
	}
}

func TestCollectTablesIncludesJoins(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{
		From: nodes.NewTable("users"),
		Joins: []*nodes.JoinNode{
			{Right: nodes.NewTable("posts")},
			{Right: nodes.NewTable("comments")},
		},
	}
	names := refNames(CollectTables(core))
	if len(names) != 3 || names[0] != "users" || names[1] != "posts" || names[2] != "comments" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestCollectTablesSkipsSubqueries(t *testing.T) {
	t.Parallel()
	derived := &nodes.TableAlias{Relation: &nodes.SelectCore{From: nodes.NewTable("tags")}, AliasName: "t"}
	core := &nodes.SelectCore{
		From: nodes.NewTable("users"),
		Joins: []*nodes.JoinNode{
			{Right: &nodes.SelectCore{From: nodes.NewTable("posts")}},
			{Right: derived},
		},
	}
	names := refNames(CollectTables(core))
	if len(names) != 1 || names[0] != "users" {
		t.Errorf("expected only users, got %v", names)
	}
}

func TestCollectTablesSkipsExpressionReferences(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{
		From:  nodes.NewTable("recent"),
		Joins: []*nodes.JoinNode{{Right: nodes.NewTable("users")}, {Right: nodes.NewTable("shared")}},
		With:  &nodes.WithClause{Expressions: []*nodes.Expression{{Name: "recent", Query: "select 1"}}},
		UnionWith: &nodes.WithClause{Expressions: []*nodes.Expression{{Name: "shared", Query: "select 2"}}},
	}
	names := refNames(CollectTables(core))
	if len(names) != 1 || names[0] != "users" {
		t.Errorf("expected only users, got %v", names)
	}
}

func TestCollectTablesNil(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, len(CollectTables(&nodes.SelectCore{})), 0)
	testutil.AssertEqual(t, len(CollectTables(nil)), 0)
}

func TestExpressionNames(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{With: &nodes.WithClause{Expressions: []*nodes.Expression{{Name: "a"}, {Name: "b"}}}}
	names := ExpressionNames(core)
	testutil.AssertEqual(t, len(names), 2)
	testutil.AssertEqual(t, names["a"], true)
	testutil.AssertEqual(t, names["c"], false)
}
