// Package sqlite registers a "sqlite3" database/sql driver backed by the
// pure-Go modernc.org/sqlite implementation, so the storage layer can open
// sqlite databases with the same driver name it uses for CGO builds.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"modernc.org/sqlite"
)

//nolint:gochecknoinits // driver registration.
func init() {
	sql.Register("sqlite3", sqliteDriver{Driver: &sqlite.Driver{}})
}

type sqliteDriver struct {
	*sqlite.Driver
}

// Open opens a connection and applies the pragmas the storage layer relies on.
// foreign_keys must be enforced per connection, sqlite defaults it to off.
func (d sqliteDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}

	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: connection does not support ExecContext")
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = on;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("sqlite: apply pragma: %w", err)
		}
	}

	return conn, nil
}
