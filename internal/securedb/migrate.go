package securedb

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Identifiers are stored as canonical UUID text in every dialect so scope
// predicates compare uniformly.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT users_tenant_email UNIQUE (tenant_id, email)
	)`,
	`CREATE INDEX IF NOT EXISTS users_tenant_idx ON users (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT cities_tenant_name UNIQUE (tenant_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS cities_tenant_idx ON cities (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		city_id TEXT NOT NULL,
		street TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT addresses_user UNIQUE (user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS addresses_tenant_idx ON addresses (tenant_id)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so repeated startups are safe.
func (c *Client) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		var res entsql.Result
		if err := c.drv.Exec(ctx, stmt, []any{}, &res); err != nil {
			return fmt.Errorf("securedb: migrate: %w", err)
		}
	}

	return nil
}
