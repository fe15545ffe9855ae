// Package sqldb persists documents as encoded rows of a SQL table.
//
// SQLite is served by the pure go modernc driver and Postgres by pgx.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	// DriverSQLite is the driver name of the sqlite database.
	DriverSQLite = "sqlite"
	// DriverPostgres is the driver name of the postgres database.
	DriverPostgres = "pgx"
)

// DB is a SQL database holding the documents of every collection in one table.
type DB struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger of the database and its gateways.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open connects to the database and creates the documents table if needed.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db := &DB{
		db:     sqlDB,
		driver: driver,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := sqlDB.ExecContext(ctx, db.schema()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Gateway returns a gateway for the named collection.
func (db *DB) Gateway(collection string) *Gateway {
	return &Gateway{db: db, collection: collection}
}

func (db *DB) schema() string {
	payload := "BLOB"
	if db.driver == DriverPostgres {
		payload = "BYTEA"
	}
	return `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		payload ` + payload + ` NOT NULL,
		PRIMARY KEY (collection, id)
	)`
}

// bind rewrites ? placeholders for the driver.
func (db *DB) bind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			out = append(out, query[i])
			continue
		}
		n++
		out = append(out, '$')
		out = strconv.AppendInt(out, int64(n), 10)
	}
	return string(out)
}
