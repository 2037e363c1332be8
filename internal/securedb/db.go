// Package securedb is the storage enforcement layer: every read, update and
// delete statement it issues carries an AccessScope in its WHERE clause, and
// every insert is validated against the scope before it is written. Domain
// code has no other path to the backing store, so no code path can bypass
// tenant isolation or ownership restrictions.
package securedb

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tenantguard/tenantguard/internal/log"
	_ "github.com/tenantguard/tenantguard/internal/pkg/sqlite"
)

// Config configures the backing store connection.
type Config struct {
	Dialect string `conf:"dialect" yaml:"dialect" json:"dialect"`
	DSN     string `conf:"dsn" yaml:"dsn" json:"dsn"`
	Debug   bool   `conf:"debug" yaml:"debug" json:"debug"`
}

// Client wraps a dialect driver and exposes the scoped CRUD primitives.
type Client struct {
	drv     dialect.Driver
	dialect string
}

// Open connects to the configured store and runs schema migration.
func Open(cfg Config) (*Client, error) {
	var (
		sqlDB     *sql.DB
		dbDialect string
		err       error
	)

	switch cfg.Dialect {
	case "postgres", "pgx", "postgresdb", "pg", "postgresql":
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		dbDialect = dialect.Postgres
	case "sqlite3", "sqlite":
		sqlDB, err = sql.Open("sqlite3", cfg.DSN)
		dbDialect = dialect.SQLite
	case "mysql", "tidb":
		sqlDB, err = sql.Open("mysql", cfg.DSN)
		dbDialect = dialect.MySQL
	default:
		return nil, fmt.Errorf("securedb: invalid dialect: %s", cfg.Dialect)
	}

	if err != nil {
		return nil, fmt.Errorf("securedb: open %s: %w", cfg.Dialect, err)
	}

	var drv dialect.Driver = entsql.OpenDB(dbDialect, sqlDB)

	if cfg.Debug {
		drv = dialect.DebugWithContext(drv, func(ctx context.Context, args ...any) {
			log.Debug(ctx, "securedb: statement", log.Any("stmt", args))
		})
	}

	client := &Client{drv: drv, dialect: dbDialect}

	if err := client.Migrate(context.Background()); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Dialect returns the dialect the client speaks.
func (c *Client) Dialect() string {
	return c.dialect
}

// Close closes the underlying driver.
func (c *Client) Close() error {
	return c.drv.Close()
}

func (c *Client) builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

// querier returns the transaction bound to ctx, or the root driver.
func (c *Client) querier(ctx context.Context) dialect.ExecQuerier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}

	return c.drv
}
