// Package db connects the query builder to a database through
// database/sql. A Conn reports its driver identifier so managers can
// pick the matching grammar, adapts ? placeholders to the driver's
// native form and logs every statement it runs.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/nakagami/firebirdsql"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/bawdo/withbee/visitors"
)

// ErrNotConnected is returned when a statement runs on a closed or
// zero Conn.
var ErrNotConnected = errors.New("database connection not established")

// sqlDrivers maps driver identifiers to registered database/sql drivers.
var sqlDrivers = map[string]string{
	visitors.DriverMySQL:       "mysql",
	visitors.DriverMariaDB:     "mysql",
	visitors.DriverSingleStore: "mysql",
	visitors.DriverPostgres:    "pgx",
	visitors.DriverSQLite:      "sqlite",
	visitors.DriverSQLServer:   "sqlserver",
	visitors.DriverOracle:      "oracle",
	visitors.DriverFirebird:    "firebirdsql",
}

// Config describes a connection.
type Config struct {
	Driver string // driver identifier, e.g. "pgsql"
	DSN    string
	// StatementTimeout bounds each write. Zero means no limit.
	StatementTimeout time.Duration
}

// Conn executes compiled statements for one driver.
type Conn struct {
	db          *sql.DB
	driver      string
	placeholder Placeholder
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Conn.
type Option func(*Conn)

// WithStatementTimeout bounds each write statement.
func WithStatementTimeout(d time.Duration) Option {
	return func(c *Conn) { c.timeout = d }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open opens and pings a database for cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Conn, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	sqlDriver, ok := sqlDrivers[driver]
	if !ok {
		return nil, &visitors.UnknownDriverError{Driver: cfg.Driver, Available: visitors.Drivers()}
	}

	sqlDB, err := sql.Open(sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == visitors.DriverSQLite {
		// each sqlite connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	c := New(sqlDB, driver, WithLogger(logger), WithStatementTimeout(cfg.StatementTimeout))
	c.logger.Info("connected", slog.String("driver", driver))
	return c, nil
}

// New wraps an open *sql.DB for the given driver identifier.
func New(sqlDB *sql.DB, driver string, opts ...Option) *Conn {
	c := &Conn{
		db:          sqlDB,
		driver:      driver,
		placeholder: PlaceholderFor(driver),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DriverName returns the driver identifier.
func (c *Conn) DriverName() string {
	return c.driver
}

// DB returns the underlying database handle.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Close closes the database connection.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	c.logger.Debug("closing database connection")
	err := c.db.Close()
	c.db = nil
	return err
}

// ExecuteRead runs a query and returns its rows. Rows outlive the call,
// so reads are bounded by ctx alone.
func (c *Conn) ExecuteRead(ctx context.Context, query string, args []any) (*sql.Rows, error) {
	if c == nil || c.db == nil {
		return nil, ErrNotConnected
	}
	stmt := Rebind(c.placeholder, query)
	start := time.Now()
	//nolint:rowserrcheck // the caller iterates and checks rows.Err()
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	c.log(ctx, stmt, args, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// ExecuteWrite runs a statement and returns the number of affected rows.
func (c *Conn) ExecuteWrite(ctx context.Context, query string, args []any) (int64, error) {
	if c == nil || c.db == nil {
		return 0, ErrNotConnected
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stmt := Rebind(c.placeholder, query)
	start := time.Now()
	res, err := c.db.ExecContext(ctx, stmt, args...)
	c.log(ctx, stmt, args, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (c *Conn) log(ctx context.Context, stmt string, args []any, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("driver", c.driver),
		slog.String("sql", stmt),
		slog.Any("args", args),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "statement failed", append(attrs, slog.Any("error", err))...)
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "statement executed", attrs...)
}
