// Package securedbtest opens throwaway in-memory stores for tests.
package securedbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/securedb"
)

// New opens a migrated in-memory store that lives for the duration of the
// test. Each call gets its own database.
func New(t *testing.T) *securedb.Client {
	t.Helper()

	client, err := securedb.Open(securedb.Config{
		Dialect: "sqlite3",
		DSN:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	return client
}
