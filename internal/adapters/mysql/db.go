// Package mysql stores stops in MySQL or MariaDB through database/sql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	location_id    BIGINT PRIMARY KEY,
	name           TEXT NULL,
	latitude       DOUBLE NULL,
	longitude      DOUBLE NULL,
	next_departure TEXT NULL,
	last_updated   VARCHAR(32) NULL,
	link_self_href VARCHAR(512) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Options describes a MySQL connection.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DSN renders the driver connection string.
func (o Options) DSN() string {
	cfg := mysqldrv.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", o.Host, o.Port)
	cfg.DBName = o.DBName
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// DB wraps a *sql.DB handle.
type DB struct {
	SQL *sql.DB
}

// New opens and pings a MySQL handle.
func New(ctx context.Context, opts Options) (*DB, error) {
	handle, err := sql.Open("mysql", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	handle.SetMaxOpenConns(10)
	handle.SetConnMaxLifetime(5 * time.Minute)

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{SQL: handle}, nil
}

// Migrate creates the locations table if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.SQL.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Close releases the handle.
func (db *DB) Close() {
	_ = db.SQL.Close()
}
