package visitors

import (
	"strings"
	"testing"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/nodes"
)

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected output to contain %q, got:\n%s", substr, s)
	}
}

// selectFrom builds select * from table.
func selectFrom(table string) *nodes.SelectCore {
	return &nodes.SelectCore{From: nodes.NewTable(table)}
}

// withExpressions attaches exprs to the statement's WITH clause and
// records their bindings the way the builder does.
func withExpressions(core *nodes.SelectCore, exprs ...*nodes.Expression) *nodes.SelectCore {
	if core.Bindings == nil {
		core.Bindings = bindings.New()
	}
	w := core.WithClauseFor(nodes.TargetStatement)
	for _, e := range exprs {
		w.Expressions = append(w.Expressions, e)
		core.Bindings.Add(bindings.Expressions, e.Bindings...)
	}
	return core
}

func expression(name, query string, binds ...any) *nodes.Expression {
	return &nodes.Expression{Name: name, Query: query, Bindings: binds}
}

// --- Table ---

func TestVisitTable(t *testing.T) {
	t.Parallel()
	users := nodes.NewTable("users")
	testutil.AssertSQL(t, NewPostgresGrammar(), users, `"users"`)
	testutil.AssertSQL(t, NewMySQLGrammar(), users, "`users`")
	testutil.AssertSQL(t, NewSQLServerGrammar(), users, "[users]")
}

func TestVisitTableWithSchema(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresGrammar(), nodes.NewTable("public.users"), `"public"."users"`)
	testutil.AssertSQL(t, NewSQLServerGrammar(), nodes.NewTable("dbo.users"), "[dbo].[users]")
}

// --- TableAlias ---

func TestVisitTableAlias(t *testing.T) {
	t.Parallel()
	u := nodes.NewTable("users").Alias("u")
	testutil.AssertSQL(t, NewPostgresGrammar(), u, `"users" as "u"`)
	testutil.AssertSQL(t, NewMySQLGrammar(), u, "`users` as `u`")
}

func TestVisitTableAliasSubquery(t *testing.T) {
	t.Parallel()
	sub := &nodes.TableAlias{Relation: selectFrom("users"), AliasName: "u"}
	testutil.AssertSQL(t, NewSQLiteGrammar(), sub, `(select * from "users") as "u"`)
}

// --- Attribute ---

func TestVisitAttribute(t *testing.T) {
	t.Parallel()
	col := nodes.NewTable("users").Col("name")
	testutil.AssertSQL(t, NewPostgresGrammar(), col, `"users"."name"`)
	testutil.AssertSQL(t, NewMySQLGrammar(), col, "`users`.`name`")
}

func TestVisitAttributeOnAlias(t *testing.T) {
	t.Parallel()
	col := nodes.NewTable("users").Alias("u").Col("name")
	testutil.AssertSQL(t, NewPostgresGrammar(), col, `"u"."name"`)
}

func TestVisitAttributeUnqualified(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewPostgresGrammar(), nodes.Column("name"), `"name"`)
	testutil.AssertSQL(t, NewSQLServerGrammar(), nodes.Column("u.*"), "[u].*")
}

// --- Literals ---

func TestVisitLiteralParameterized(t *testing.T) {
	t.Parallel()
	v := NewPostgresGrammar()
	core := selectFrom("users")
	core.Wheres = []nodes.Node{nodes.Column("id").Eq(7)}
	sql, args := v.CompileSelect(core)
	testutil.AssertCompiled(t, sql, args, `select * from "users" where "id" = ?`, 7)
}

func TestVisitLiteralWithoutParams(t *testing.T) {
	t.Parallel()
	v := NewPostgresGrammar(WithoutParams())
	testutil.AssertSQL(t, v, nodes.Literal("O'Brien"), `'O''Brien'`)
	testutil.AssertSQL(t, v, nodes.Literal(42), `42`)
	testutil.AssertSQL(t, v, nodes.Literal(3.5), `3.5`)
	testutil.AssertSQL(t, v, nodes.Literal(true), `true`)
	testutil.AssertSQL(t, v, nodes.Literal(nil), `null`)
}

func TestVisitLiteralUnsupportedTypePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported literal type")
		}
	}()
	nodes.Literal(struct{}{}).Accept(NewPostgresGrammar(WithoutParams()))
}

func TestVisitSqlLiteralBindsValues(t *testing.T) {
	t.Parallel()
	core := selectFrom("users")
	core.Wheres = []nodes.Node{nodes.NewBoundSqlLiteral("age between ? and ?", 18, 65)}
	sql, args := NewMySQLGrammar().CompileSelect(core)
	testutil.AssertCompiled(t, sql, args, "select * from `users` where age between ? and ?", 18, 65)
}

// --- Predicates ---

func TestVisitPredicates(t *testing.T) {
	t.Parallel()
	id := nodes.Column("users.id")
	tests := []struct {
		name string
		node nodes.Node
		want string
	}{
		{"not eq", id.NotEq(1), `"users"."id" != 1`},
		{"like", nodes.Column("name").Like("a%"), `"name" like 'a%'`},
		{"in", id.In(1, 2), `"users"."id" in (1, 2)`},
		{"not in", id.NotIn(1), `"users"."id" not in (1)`},
		{"empty in", id.In(), `0 = 1`},
		{"empty not in", id.NotIn(), `1 = 1`},
		{"between", id.Between(1, 9), `"users"."id" between 1 and 9`},
		{"is null", id.IsNull(), `"users"."id" is null`},
		{"is not null", id.IsNotNull(), `"users"."id" is not null`},
		{"and", id.Gt(1).And(id.Lt(9)), `"users"."id" > 1 and "users"."id" < 9`},
		{"or", id.Eq(1).Or(id.Eq(2)), `("users"."id" = 1 or "users"."id" = 2)`},
		{"not", id.Eq(1).Not(), `not ("users"."id" = 1)`},
		{"exists", nodes.Exists(selectFrom("posts")), `exists (select * from "posts")`},
		{"not exists", nodes.NotExists(selectFrom("posts")), `not exists (select * from "posts")`},
		{"in query", id.InQuery(selectFrom("admins")), `"users"."id" in (select * from "admins")`},
		{"alias", nodes.Count(nil).As("total"), `count(*) as "total"`},
		{"desc", id.Desc(), `"users"."id" desc`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, NewPostgresGrammar(WithoutParams()), tt.node, tt.want)
		})
	}
}

func TestVisitAggregateDistinct(t *testing.T) {
	t.Parallel()
	agg := nodes.Count(nodes.Column("user_id"))
	agg.Distinct = true
	testutil.AssertSQL(t, NewMySQLGrammar(), agg, "count(distinct `user_id`)")
}

// --- Joins ---

func TestVisitJoin(t *testing.T) {
	t.Parallel()
	v := NewMySQLGrammar()
	join := &nodes.JoinNode{
		Right: nodes.NewTable("p"),
		Type:  nodes.LeftOuterJoin,
		On:    nodes.Column("p.user_id").Eq(nodes.Column("u.id")),
	}
	testutil.AssertSQL(t, v, join, "left join `p` on `p`.`user_id` = `u`.`id`")

	cross := &nodes.JoinNode{Right: nodes.NewTable("tags"), Type: nodes.CrossJoin}
	testutil.AssertSQL(t, v, cross, "cross join `tags`")

	raw := &nodes.JoinNode{Right: nodes.NewSqlLiteral("natural join t"), Type: nodes.StringJoin}
	testutil.AssertSQL(t, v, raw, "natural join t")
}

// --- Select ---

func TestCompileSelectClauses(t *testing.T) {
	t.Parallel()
	core := selectFrom("posts")
	core.Distinct = true
	core.Projections = []nodes.Node{nodes.Column("user_id"), nodes.Count(nil)}
	core.Wheres = []nodes.Node{nodes.Column("published").Eq(true), nodes.Column("views").Gt(10)}
	core.Groups = []nodes.Node{nodes.Column("user_id")}
	core.Havings = []nodes.Node{nodes.Count(nil).Gt(2)}
	core.Orders = []nodes.Node{nodes.Column("user_id").Asc()}
	core.Limit = nodes.Literal(5)
	core.Offset = nodes.Literal(10)

	sql, args := NewPostgresGrammar().CompileSelect(core)
	testutil.AssertCompiled(t, sql, args,
		`select distinct "user_id", count(*) from "posts" where "published" = ? and "views" > ? group by "user_id" having count(*) > ? order by "user_id" asc limit 5 offset 10`,
		true, 10, 2)
}

func TestCompileSelectWithoutFrom(t *testing.T) {
	t.Parallel()
	core := &nodes.SelectCore{Projections: []nodes.Node{nodes.NewSqlLiteral("1")}}
	sql, _ := NewSQLiteGrammar().CompileSelect(core)
	testutil.AssertEqual(t, sql, "select 1")
}

func TestCompileSelectBindingsFollowClauseOrder(t *testing.T) {
	t.Parallel()
	core := selectFrom("users")
	// Registered out of textual order on purpose.
	core.Havings = []nodes.Node{nodes.Count(nil).Gt(3)}
	core.Wheres = []nodes.Node{nodes.Column("active").Eq(1)}
	core.Projections = []nodes.Node{nodes.NewBoundSqlLiteral("? as tag", "x")}
	core.Groups = []nodes.Node{nodes.Column("team")}

	sql, args := NewMySQLGrammar().CompileSelect(core)
	testutil.AssertCompiled(t, sql, args,
		"select ? as tag from `users` where `active` = ? group by `team` having count(*) > ?",
		"x", 1, 3)
}

func TestCompileSelectSubqueryBindingsLandInClause(t *testing.T) {
	t.Parallel()
	sub := selectFrom("admins")
	sub.Projections = []nodes.Node{nodes.Column("id")}
	sub.Wheres = []nodes.Node{nodes.Column("level").GtEq(2)}

	core := selectFrom("users")
	core.Wheres = []nodes.Node{nodes.Column("id").InQuery(sub), nodes.Column("active").Eq(true)}

	sql, args := NewPostgresGrammar().CompileSelect(core)
	testutil.AssertCompiled(t, sql, args,
		`select * from "users" where "id" in (select "id" from "admins" where "level" >= ?) and "active" = ?`,
		2, true)
}

func TestCompileSelectIsDeterministic(t *testing.T) {
	t.Parallel()
	core := withExpressions(selectFrom("u"), expression("u", "select * from users where id > ?", 1))
	core.Wheres = []nodes.Node{nodes.Column("name").Eq("a")}

	v := NewPostgresGrammar()
	sql1, args1 := v.CompileSelect(core)
	sql2, args2 := v.CompileSelect(core)
	testutil.AssertEqual(t, sql1, sql2)
	testutil.AssertArgs(t, args2, args1...)
}

func TestCompileSelectDoesNotMutateLedger(t *testing.T) {
	t.Parallel()
	core := withExpressions(selectFrom("u"), expression("u", "select ?", 1))
	core.Wheres = []nodes.Node{nodes.Column("id").Eq(2)}

	NewMySQLGrammar().CompileSelect(core)
	testutil.AssertEqual(t, core.Bindings.Len(), 1)
}
