package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/withbee/internal/testutil"
	"github.com/bawdo/withbee/visitors"
)

func newMock(t *testing.T, driver string, opts ...Option) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	return New(sqlDB, driver, opts...), mock
}

func TestOpen_UnknownDriver(t *testing.T) {
	conn, err := Open(context.Background(), Config{Driver: "db2"}, nil)
	assert.Nil(t, conn)

	var unknown *visitors.UnknownDriverError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "db2", unknown.Driver)
	assert.Len(t, unknown.Available, len(sqlDrivers))
}

func TestSQLDriversCoverEveryGrammar(t *testing.T) {
	for _, d := range visitors.Drivers() {
		_, ok := sqlDrivers[d]
		assert.True(t, ok, "no database/sql driver for %s", d)
	}
}

func TestConn_DriverName(t *testing.T) {
	conn, _ := newMock(t, visitors.DriverPostgres)
	assert.Equal(t, visitors.DriverPostgres, conn.DriverName())
	assert.NotNil(t, conn.DB())
}

func TestConn_ExecuteRead(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "mysql keeps question marks",
			driver: visitors.DriverMySQL,
			query:  "with `u` as (select * from `users` where `id` > ?) select * from `u` where `name` = ?",
			want:   "with `u` as (select * from `users` where `id` > ?) select * from `u` where `name` = ?",
		},
		{
			name:   "pgsql numbers placeholders",
			driver: visitors.DriverPostgres,
			query:  `with "u" as (select * from "users" where "id" > ?) select * from "u" where "name" = ?`,
			want:   `with "u" as (select * from "users" where "id" > $1) select * from "u" where "name" = $2`,
		},
		{
			name:   "sqlsrv uses @p",
			driver: visitors.DriverSQLServer,
			query:  "select * from [users] where [id] > ? and [name] = ?",
			want:   "select * from [users] where [id] > @p1 and [name] = @p2",
		},
		{
			name:   "oracle uses colon",
			driver: visitors.DriverOracle,
			query:  `select * from "users" where "id" > ? and "name" = ?`,
			want:   `select * from "users" where "id" > :1 and "name" = :2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t, tt.driver)
			mock.ExpectQuery(tt.want).
				WithArgs(1, "a").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

			rows, err := conn.ExecuteRead(context.Background(), tt.query, []any{1, "a"})
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()

			var ids []int
			for rows.Next() {
				var id int
				require.NoError(t, rows.Scan(&id))
				ids = append(ids, id)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, []int{2}, ids)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_ExecuteReadError(t *testing.T) {
	conn, mock := newMock(t, visitors.DriverMySQL)
	mock.ExpectQuery("select 1").WillReturnError(assert.AnError)

	_, err := conn.ExecuteRead(context.Background(), "select 1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to execute query")
}

func TestConn_ExecuteWrite(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      int64
		expectErr bool
	}{
		{
			name: "affected rows",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`with "u" as (select "id" from "accounts" where "id" > $1) delete from "users" where "id" in (select "id" from "u")`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 3))
			},
			want: 3,
		},
		{
			name: "statement error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`with "u" as (select "id" from "accounts" where "id" > $1) delete from "users" where "id" in (select "id" from "u")`).
					WillReturnError(assert.AnError)
			},
			expectErr: true,
		},
		{
			name: "rows affected error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`with "u" as (select "id" from "accounts" where "id" > $1) delete from "users" where "id" in (select "id" from "u")`).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("unsupported")))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t, visitors.DriverPostgres, WithStatementTimeout(time.Second))
			tt.setupMock(mock)

			n, err := conn.ExecuteWrite(context.Background(),
				`with "u" as (select "id" from "accounts" where "id" > ?) delete from "users" where "id" in (select "id" from "u")`,
				[]any{1})
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, n)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_NotConnected(t *testing.T) {
	var zero *Conn
	_, err := zero.ExecuteRead(context.Background(), "select 1", nil)
	assert.ErrorIs(t, err, ErrNotConnected)

	conn, mock := newMock(t, visitors.DriverSQLite)
	mock.ExpectClose()
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.ExecuteWrite(context.Background(), "delete from t", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
