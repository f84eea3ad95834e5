package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/withbee/db"
	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/managers"
	"github.com/bawdo/withbee/nodes"
	"github.com/bawdo/withbee/visitors"
)

func openSQLite(t *testing.T) *db.Conn {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.Config{Driver: visitors.DriverSQLite, DSN: ":memory:"}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, conn.DB().Stats().MaxOpenConnections)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range []string{
		`create table accounts (id integer primary key, parent_id integer, name text, active integer not null default 1)`,
		`create table archive (id integer primary key, name text)`,
	} {
		_, err := conn.ExecuteWrite(ctx, stmt, nil)
		require.NoError(t, err)
	}

	q, err := managers.Table(conn, "accounts")
	require.NoError(t, err)
	n, err := q.Insert().
		Columns("id", "parent_id", "name").
		Values(1, nil, "root").
		Values(2, 1, "child").
		Values(3, 2, "grandchild").
		Values(4, nil, "other").
		Exec(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	return conn
}

func ints(t *testing.T, q *managers.SelectManager) []int {
	t.Helper()
	rows, err := q.Get(context.Background())
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		out = append(out, v)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestSQLite_RecursiveCounter(t *testing.T) {
	conn := openSQLite(t)
	q, err := managers.Table(conn, "t")
	require.NoError(t, err)

	q.WithRecursiveExpression("t", func(base *managers.SelectManager) {
		step := managers.NewSelectManager(base.Grammar(), nodes.NewTable("t")).
			SelectRaw("n + 1").
			WhereRaw("n < ?", 5)
		base.SelectRaw("1").UnionAll(step)
	}, managers.Columns("n")).Select(nodes.Column("n"))

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ints(t, q))
}

func TestSQLite_RecursiveTree(t *testing.T) {
	conn := openSQLite(t)
	q, err := managers.Table(conn, "tree")
	require.NoError(t, err)

	q.WithRecursiveExpression("tree", func(base *managers.SelectManager) {
		step := managers.NewSelectManager(base.Grammar(), nodes.NewTable("accounts")).
			Select(nodes.Column("accounts.id")).
			Join(nodes.NewTable("tree")).OnColumns("accounts.parent_id", "tree.id")
		base.From(nodes.NewTable("accounts")).
			Select(nodes.Column("id")).
			Where(nodes.Column("id").Eq(1)).
			UnionAll(step)
	}).Select(nodes.Column("id")).Order(nodes.Column("id").Asc())

	assert.Equal(t, []int{1, 2, 3}, ints(t, q))
}

func TestSQLite_InsertUsing(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()

	q, err := managers.Table(conn, "archive")
	require.NoError(t, err)
	n, err := q.WithExpression("roots", func(sub *managers.SelectManager) {
		sub.From(nodes.NewTable("accounts")).
			Select(nodes.Column("id"), nodes.Column("name")).
			Where(nodes.Column("parent_id").IsNull())
	}).InsertUsing(ctx, []string{"id", "name"}, "select id, name from roots")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	check, err := managers.Table(conn, "archive")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, ints(t, check.Select(nodes.Column("id")).Order(nodes.Column("id").Asc())))
}

func TestSQLite_UpdateAndDelete(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()

	descendants := func(q *managers.SelectManager) *managers.SelectManager {
		return q.WithExpression("leaf", func(sub *managers.SelectManager) {
			sub.From(nodes.NewTable("accounts")).Select(nodes.Column("id")).Where(nodes.Column("parent_id").GtEq(2))
		}).Where(nodes.Column("id").InQuery(
			managers.NewSelectManager(q.Grammar(), nodes.NewTable("leaf")).Select(nodes.Column("id")),
		))
	}

	upd, err := managers.Table(conn, "accounts")
	require.NoError(t, err)
	n, err := descendants(upd).Update(ctx, managers.Set("active", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	inactive, err := managers.Table(conn, "accounts")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, ints(t, inactive.Select(nodes.Column("id")).Where(nodes.Column("active").Eq(0))))

	del, err := managers.Table(conn, "accounts")
	require.NoError(t, err)
	n, err = descendants(del).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rest, err := managers.Table(conn, "accounts")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, ints(t, rest.Select(nodes.Column("id")).Order(nodes.Column("id").Asc())))
}
