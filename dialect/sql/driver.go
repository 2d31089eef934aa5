package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/erdgen/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Driver is a database connection bound to a dialect.
type Driver struct {
	Conn
}

// Open opens a connection for the given dialect. The connection is not
// checked; use Ping.
func Open(d, source string) (*Driver, error) {
	d, err := dialect.Parse(d)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName(d), source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", d, err)
	}
	return OpenDB(d, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(d string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: d}}
}

// driverName returns the database/sql driver registered for a dialect.
func driverName(d string) string {
	if d == dialect.SQLite {
		// modernc.org/sqlite registers itself as "sqlite".
		return "sqlite"
	}
	return d
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Ping verifies the connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.DB().PingContext(ctx); err != nil {
		return fmt.Errorf("dialect/sql: ping: %w", err)
	}
	return nil
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{
		Conn: Conn{ExecQuerier: tx, dialect: d.dialect},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a transaction bound to a dialect.
type Tx struct {
	Conn
	*sql.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn runs dialect-aware statements on an ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Dialect returns the dialect name.
func (c Conn) Dialect() string {
	return c.dialect
}

// Insert inserts one row and returns the value of the returning column, or
// nil when returning is empty. PostgreSQL reads it with RETURNING, the other
// dialects with LastInsertId.
func (c Conn) Insert(ctx context.Context, table string, columns []string, args []any, returning string) (any, error) {
	if len(columns) != len(args) {
		return nil, fmt.Errorf("dialect/sql: insert into %s: %d columns but %d values", table, len(columns), len(args))
	}
	for _, name := range append([]string{table}, columns...) {
		if !isValidIdentifier(name) {
			return nil, fmt.Errorf("dialect/sql: invalid identifier %q", name)
		}
	}
	if returning != "" && !isValidIdentifier(returning) {
		return nil, fmt.Errorf("dialect/sql: invalid identifier %q", returning)
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(dialect.Quote(c.dialect, table))
	if len(columns) == 0 {
		if c.dialect == dialect.MySQL {
			b.WriteString(" () VALUES ()")
		} else {
			b.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.WriteString(" (")
		for i, col := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(dialect.Quote(c.dialect, col))
		}
		b.WriteString(") VALUES (")
		for i := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(dialect.Placeholder(c.dialect, i+1))
		}
		b.WriteString(")")
	}
	if returning != "" && c.dialect == dialect.Postgres {
		b.WriteString(" RETURNING ")
		b.WriteString(dialect.Quote(c.dialect, returning))
		var id int64
		if err := c.QueryRowContext(ctx, b.String(), args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("dialect/sql: insert into %s: %w", table, err)
		}
		return id, nil
	}
	res, err := c.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: insert into %s: %w", table, err)
	}
	if returning == "" {
		return nil, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: insert into %s: last insert id: %w", table, err)
	}
	return id, nil
}

// Values returns every value of a column of table.
func (c Conn) Values(ctx context.Context, table, column string) ([]any, error) {
	if !isValidIdentifier(table) || !isValidIdentifier(column) {
		return nil, fmt.Errorf("dialect/sql: invalid identifier %q.%q", table, column)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", dialect.Quote(c.dialect, column), dialect.Quote(c.dialect, table))
	rows, err := c.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: select %s.%s: %w", table, column, err)
	}
	defer rows.Close()
	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan %s.%s: %w", table, column, err)
		}
		// Text protocols return numbers as bytes.
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: select %s.%s: %w", table, column, err)
	}
	return values, nil
}

// TxOptions holds the transaction options to be used in DB.BeginTx.
type TxOptions = sql.TxOptions
