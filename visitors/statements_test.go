package visitors

import (
	"testing"

	"github.com/bawdo/withbee/bindings"
	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/nodes"
)

const accountsBody = "select id from accounts where id > ?"

// insertFixture builds insert into users (id, name) select id, name from u
// with u bound to one value.
func insertFixture() *nodes.InsertStatement {
	ledger := bindings.New()
	ledger.Add(bindings.Expressions, 1)
	return &nodes.InsertStatement{
		Into:    nodes.NewTable("users"),
		Columns: []string{"id", "name"},
		Select: &nodes.SelectCore{
			From:        nodes.NewTable("u"),
			Projections: nodes.Columns("id", "name"),
		},
		With:     &nodes.WithClause{Expressions: []*nodes.Expression{expression("u", accountsBody, 1)}},
		Bindings: ledger,
	}
}

// writeQuery builds the query narrowing an update or delete of users to
// the ids found in u.
func writeQuery() *nodes.SelectCore {
	sub := &nodes.SelectCore{From: nodes.NewTable("u"), Projections: nodes.Columns("id")}
	core := withExpressions(selectFrom("users"), expression("u", accountsBody, 1))
	core.Wheres = []nodes.Node{nodes.Column("id").InQuery(sub)}
	return core
}

func joinedWriteQuery() *nodes.SelectCore {
	core := withExpressions(selectFrom("users"), expression("u", accountsBody, 1))
	core.Joins = []*nodes.JoinNode{{
		Right: nodes.NewTable("u"),
		Type:  nodes.InnerJoin,
		On:    nodes.Column("u.id").Eq(nodes.Column("users.id")),
	}}
	core.Wheres = []nodes.Node{nodes.Column("users.active").Eq(false)}
	return core
}

func activate(q *nodes.SelectCore) *nodes.UpdateStatement {
	return &nodes.UpdateStatement{
		Query:       q,
		Assignments: []*nodes.AssignmentNode{nodes.Set(nodes.Column("active"), true)},
	}
}

// --- Insert ---

func TestCompileInsertUsingPlacement(t *testing.T) {
	t.Parallel()
	tests := []struct {
		driver string
		want   string
	}{
		{DriverPostgres, `with "u" as (` + accountsBody + `) insert into "users" ("id", "name") select "id", "name" from "u"`},
		{DriverSQLite, `with "u" as (` + accountsBody + `) insert into "users" ("id", "name") select "id", "name" from "u"`},
		{DriverSQLServer, "with [u] as (" + accountsBody + ") insert into [users] ([id], [name]) select [id], [name] from [u]"},
		{DriverMySQL, "insert into `users` (`id`, `name`) with `u` as (" + accountsBody + ") select `id`, `name` from `u`"},
		{DriverMariaDB, "insert into `users` (`id`, `name`) with `u` as (" + accountsBody + ") select `id`, `name` from `u`"},
		{DriverSingleStore, "insert into `users` (`id`, `name`) with `u` as (" + accountsBody + ") select `id`, `name` from `u`"},
		{DriverOracle, `insert into "users" ("id", "name") with "u" as (` + accountsBody + `) select "id", "name" from "u"`},
		{DriverFirebird, `insert into "users" ("id", "name") with "u" as (` + accountsBody + `) select "id", "name" from "u"`},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()
			sql, args := mustGrammar(t, tt.driver).CompileInsertUsing(insertFixture())
			testutil.AssertCompiled(t, sql, args, tt.want, 1)
		})
	}
}

func TestCompileInsertUsingRecursionLimit(t *testing.T) {
	t.Parallel()
	stmt := insertFixture()
	limit := 5
	stmt.With.RecursionLimit = &limit
	sql, _ := NewSQLServerGrammar().CompileInsertUsing(stmt)
	testutil.AssertEqual(t, sql,
		"with [u] as ("+accountsBody+") insert into [users] ([id], [name]) select [id], [name] from [u] option (maxrecursion 5)")
}

func TestCompileInsertUsingQueryBindingsFollowExpressions(t *testing.T) {
	t.Parallel()
	stmt := insertFixture()
	stmt.Select.(*nodes.SelectCore).Wheres = []nodes.Node{nodes.Column("name").NotEq("root")}
	_, args := NewMySQLGrammar().CompileInsertUsing(stmt)
	testutil.AssertArgs(t, args, 1, "root")
}

func TestCompileInsertUsingWithoutExpressions(t *testing.T) {
	t.Parallel()
	stmt := &nodes.InsertStatement{
		Into:    nodes.NewTable("archive"),
		Columns: []string{"id"},
		Select:  nodes.NewBoundSqlLiteral("select id from users where id < ?", 9),
	}
	for _, d := range []string{DriverMySQL, DriverPostgres} {
		sql, args := mustGrammar(t, d).CompileInsertUsing(stmt)
		assertContains(t, sql, "select id from users where id < ?")
		testutil.AssertArgs(t, args, 9)
	}
}

func TestCompileInsertValues(t *testing.T) {
	t.Parallel()
	stmt := &nodes.InsertStatement{
		Into:    nodes.NewTable("users"),
		Columns: []string{"id", "name"},
		Values: [][]nodes.Node{
			{nodes.Literal(1), nodes.Literal("a")},
			{nodes.Literal(2), nodes.Literal("b")},
		},
	}
	sql, args := NewPostgresGrammar().CompileInsert(stmt)
	testutil.AssertCompiled(t, sql, args, `insert into "users" ("id", "name") values (?, ?), (?, ?)`, 1, "a", 2, "b")

	empty := &nodes.InsertStatement{Into: nodes.NewTable("users")}
	sql, _ = NewMySQLGrammar().CompileInsert(empty)
	testutil.AssertEqual(t, sql, "insert into `users` default values")
}

// --- Update ---

func TestCompileUpdatePrependsExpressions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		driver string
		want   string
	}{
		{DriverPostgres, `with "u" as (` + accountsBody + `) update "users" set "active" = ? where "id" in (select "id" from "u")`},
		{DriverSQLite, `with "u" as (` + accountsBody + `) update "users" set "active" = ? where "id" in (select "id" from "u")`},
		{DriverMySQL, "with `u` as (" + accountsBody + ") update `users` set `active` = ? where `id` in (select `id` from `u`)"},
		{DriverSQLServer, "with [u] as (" + accountsBody + ") update [users] set [active] = ? where [id] in (select [id] from [u])"},
		{DriverOracle, `with "u" as (` + accountsBody + `) update "users" set "active" = ? where "id" in (select "id" from "u")`},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()
			sql, args := mustGrammar(t, tt.driver).CompileUpdate(activate(writeQuery()))
			testutil.AssertCompiled(t, sql, args, tt.want, 1, true)
		})
	}
}

func TestCompileUpdateRowIDFallback(t *testing.T) {
	t.Parallel()
	sql, args := NewPostgresGrammar().CompileUpdate(activate(joinedWriteQuery()))
	testutil.AssertCompiled(t, sql, args,
		`update "users" set "active" = ? where "ctid" in (with "u" as (`+accountsBody+`) select "users"."ctid" from "users" inner join "u" on "u"."id" = "users"."id" where "users"."active" = ?)`,
		true, 1, false)

	limited := writeQuery()
	limited.Limit = nodes.Literal(10)
	sql, args = NewSQLiteGrammar().CompileUpdate(activate(limited))
	testutil.AssertCompiled(t, sql, args,
		`update "users" set "active" = ? where "rowid" in (with "u" as (`+accountsBody+`) select "users"."rowid" from "users" where "id" in (select "id" from "u") limit 10)`,
		true, 1)
}

func TestCompileUpdateMySQLOrderAndLimit(t *testing.T) {
	t.Parallel()
	q := writeQuery()
	q.Orders = []nodes.Node{nodes.Column("id").Asc()}
	q.Limit = nodes.Literal(5)

	sql, args := NewMySQLGrammar().CompileUpdate(activate(q))
	testutil.AssertCompiled(t, sql, args,
		"with `u` as ("+accountsBody+") update `users` set `active` = ? where `id` in (select `id` from `u`) order by `id` asc limit 5",
		1, true)

	sql, _ = NewSingleStoreGrammar(IgnoreOrderByInUpdates()).CompileUpdate(activate(q))
	testutil.AssertEqual(t, sql,
		"with `u` as ("+accountsBody+") update `users` set `active` = ? where `id` in (select `id` from `u`) limit 5")

	sql, _ = NewSingleStoreGrammar(IgnoreOrderByInDeletes()).CompileUpdate(activate(q))
	assertContains(t, sql, "order by `id` asc limit 5")
}

func TestCompileUpdateWithJoins(t *testing.T) {
	t.Parallel()
	sql, args := NewMySQLGrammar().CompileUpdate(activate(joinedWriteQuery()))
	testutil.AssertCompiled(t, sql, args,
		"with `u` as ("+accountsBody+") update `users` inner join `u` on `u`.`id` = `users`.`id` set `active` = ? where `users`.`active` = ?",
		1, true, false)

	sql, args = NewSQLServerGrammar().CompileUpdate(activate(joinedWriteQuery()))
	testutil.AssertCompiled(t, sql, args,
		"with [u] as ("+accountsBody+") update [users] set [active] = ? from [users] inner join [u] on [u].[id] = [users].[id] where [users].[active] = ?",
		1, true, false)
}

func TestCompileUpdateFrom(t *testing.T) {
	t.Parallel()
	core := withExpressions(selectFrom("posts"), expression("u", "select * from users where id > ?", 1))
	core.Joins = []*nodes.JoinNode{{
		Right: nodes.NewTable("u"),
		Type:  nodes.InnerJoin,
		On:    nodes.Column("u.id").Eq(nodes.Column("posts.user_id")),
	}}
	core.Wheres = []nodes.Node{nodes.Column("posts.views").Lt(10)}
	stmt := &nodes.UpdateStatement{
		Query:       core,
		Assignments: []*nodes.AssignmentNode{nodes.Set(nodes.Column("score"), 5)},
	}

	sql, args := NewPostgresGrammar().CompileUpdateFrom(stmt)
	testutil.AssertCompiled(t, sql, args,
		`with "u" as (select * from users where id > ?) update "posts" set "score" = ? from "u" where "u"."id" = "posts"."user_id" and "posts"."views" < ?`,
		1, 5, 10)

	core.Joins = nil
	sql, args = NewPostgresGrammar().CompileUpdateFrom(stmt)
	testutil.AssertCompiled(t, sql, args,
		`with "u" as (select * from users where id > ?) update "posts" set "score" = ? where "posts"."views" < ?`,
		1, 5, 10)
}

func TestUpdateFromOnlyOnPostgres(t *testing.T) {
	t.Parallel()
	for _, d := range Drivers() {
		_, ok := mustGrammar(t, d).(UpdateFromCompiler)
		testutil.AssertEqual(t, ok, d == DriverPostgres)
	}
}

// --- Delete ---

func TestCompileDeletePrependsExpressions(t *testing.T) {
	t.Parallel()
	stmt := &nodes.DeleteStatement{Query: writeQuery()}
	sql, args := NewMySQLGrammar().CompileDelete(stmt)
	testutil.AssertCompiled(t, sql, args,
		"with `u` as ("+accountsBody+") delete from `users` where `id` in (select `id` from `u`)",
		1)

	sql, _ = NewFirebirdGrammar().CompileDelete(stmt)
	testutil.AssertEqual(t, sql,
		`with "u" as (`+accountsBody+`) delete from "users" where "id" in (select "id" from "u")`)
}

func TestCompileDeleteWithJoins(t *testing.T) {
	t.Parallel()
	stmt := &nodes.DeleteStatement{Query: joinedWriteQuery()}
	sql, args := NewMySQLGrammar().CompileDelete(stmt)
	testutil.AssertCompiled(t, sql, args,
		"with `u` as ("+accountsBody+") delete `users` from `users` inner join `u` on `u`.`id` = `users`.`id` where `users`.`active` = ?",
		1, false)
}

func TestCompileDeleteRowIDFallback(t *testing.T) {
	t.Parallel()
	q := withExpressions(selectFrom("users"), expression("u", accountsBody, 1))
	q.Limit = nodes.Literal(3)
	sql, args := NewPostgresGrammar().CompileDelete(&nodes.DeleteStatement{Query: q})
	testutil.AssertCompiled(t, sql, args,
		`delete from "users" where "ctid" in (with "u" as (`+accountsBody+`) select "users"."ctid" from "users" limit 3)`,
		1)
}

func TestCompileDeleteLimited(t *testing.T) {
	t.Parallel()
	q := selectFrom("users")
	q.Wheres = []nodes.Node{nodes.Column("active").Eq(false)}
	q.Orders = []nodes.Node{nodes.Column("id").Asc()}
	q.Limit = nodes.Literal(3)
	stmt := &nodes.DeleteStatement{Query: q}

	sql, args := NewSQLServerGrammar().CompileDelete(stmt)
	testutil.AssertCompiled(t, sql, args, "delete top (3) from [users] where [active] = ?", false)

	sql, _ = NewMySQLGrammar().CompileDelete(stmt)
	testutil.AssertEqual(t, sql, "delete from `users` where `active` = ? order by `id` asc limit 3")

	sql, _ = NewSingleStoreGrammar(IgnoreOrderByInDeletes()).CompileDelete(stmt)
	testutil.AssertEqual(t, sql, "delete from `users` where `active` = ? limit 3")
}

func TestCompileDeleteLimitedWithJoinsSQLServer(t *testing.T) {
	t.Parallel()
	q := joinedWriteQuery()
	q.Limit = nodes.Literal(2)
	sql, args := NewSQLServerGrammar().CompileDelete(&nodes.DeleteStatement{Query: q})
	testutil.AssertCompiled(t, sql, args,
		"with [u] as ("+accountsBody+") delete top (2) [users] from [users] inner join [u] on [u].[id] = [users].[id] where [users].[active] = ?",
		1, false)
}

// --- Binding count ---

func TestWriteBindingCount(t *testing.T) {
	t.Parallel()
	q := withExpressions(selectFrom("users"),
		expression("a", "select ? as x", "a1"),
		expression("b", "select ?, ? as y", "b1", "b2"),
	)
	q.Wheres = []nodes.Node{nodes.Column("id").Eq(7)}
	stmt := activate(q)

	for _, d := range []string{DriverMySQL, DriverPostgres, DriverSQLServer, DriverOracle} {
		_, args := mustGrammar(t, d).CompileUpdate(stmt)
		testutil.AssertArgs(t, args, "a1", "b1", "b2", true, 7)
	}
}
