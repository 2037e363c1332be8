package securedb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/securedb"
	"github.com/tenantguard/tenantguard/internal/securedb/securedbtest"
)

func userValues(id, tenant uuid.UUID, email string) map[string]any {
	now := time.Now().UTC()

	return map[string]any{
		"id":           id,
		"tenant_id":    tenant,
		"email":        email,
		"display_name": "someone",
		"created_at":   now,
		"updated_at":   now,
	}
}

func addressValues(id, tenant, user, city uuid.UUID) map[string]any {
	now := time.Now().UTC()

	return map[string]any{
		"id":          id,
		"tenant_id":   tenant,
		"user_id":     user,
		"city_id":     city,
		"street":      "1 Main St",
		"postal_code": "00100",
		"created_at":  now,
		"updated_at":  now,
	}
}

func TestInsertValidated(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenant := uuid.New()
	scope := authz.ForTenants([]uuid.UUID{tenant})

	t.Run("accepts values inside the scope", func(t *testing.T) {
		id := uuid.New()
		require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenant, "a@example.com"), scope))

		row, err := client.FindScoped(ctx, securedb.TableUsers, id, scope)
		require.NoError(t, err)
		assert.Equal(t, id, row.UUID("id"))
		assert.Equal(t, tenant, row.UUID("tenant_id"))
		assert.Equal(t, "a@example.com", row.String("email"))
	})

	t.Run("rejects a foreign tenant before writing", func(t *testing.T) {
		foreign := uuid.New()
		id := uuid.New()

		err := client.InsertValidated(ctx, securedb.TableUsers, userValues(id, foreign, "b@example.com"), scope)
		require.ErrorIs(t, err, securedb.ErrScopeViolation)

		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{}, authz.AccessScope{})
		require.NoError(t, err)
		for _, row := range rows {
			assert.NotEqual(t, id, row.UUID("id"))
		}
	})

	t.Run("rejects unknown columns", func(t *testing.T) {
		values := userValues(uuid.New(), tenant, "c@example.com")
		values["role"] = "admin"

		err := client.InsertValidated(ctx, securedb.TableUsers, values, scope)
		require.Error(t, err)
		require.NotErrorIs(t, err, securedb.ErrScopeViolation)
	})
}

func TestFindScoped(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	id := uuid.New()

	scopeA := authz.ForTenants([]uuid.UUID{tenantA})
	require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenantA, "a@example.com"), scopeA))

	t.Run("visible inside the owning tenant", func(t *testing.T) {
		row, err := client.FindScoped(ctx, securedb.TableUsers, id, scopeA)
		require.NoError(t, err)
		assert.Equal(t, id, row.UUID("id"))
	})

	t.Run("invisible to another tenant", func(t *testing.T) {
		_, err := client.FindScoped(ctx, securedb.TableUsers, id, authz.ForTenants([]uuid.UUID{tenantB}))
		require.ErrorIs(t, err, securedb.ErrRowNotFound)
	})

	t.Run("invisible to an empty tenant set", func(t *testing.T) {
		_, err := client.FindScoped(ctx, securedb.TableUsers, id, authz.ForTenants(nil))
		require.ErrorIs(t, err, securedb.ErrRowNotFound)
	})

	t.Run("visible to an unrestricted scope", func(t *testing.T) {
		row, err := client.FindScoped(ctx, securedb.TableUsers, id, authz.AccessScope{})
		require.NoError(t, err)
		assert.Equal(t, id, row.UUID("id"))
	})
}

func TestScopeSkipsUndeclaredFields(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenant := uuid.New()
	owner := uuid.New()
	userID := uuid.New()

	scope := authz.ForTenants([]uuid.UUID{tenant}).And(authz.Eq(securedb.FieldOwnerID, owner))

	require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(userID, tenant, "a@example.com"), scope))

	// Users carry no ownership field, so the owner predicate neither blocks
	// the insert nor hides the row.
	row, err := client.FindScoped(ctx, securedb.TableUsers, userID, scope)
	require.NoError(t, err)
	assert.Equal(t, userID, row.UUID("id"))

	// Addresses do carry one, so the same scope pins them to the owner.
	mine := uuid.New()
	require.NoError(t, client.InsertValidated(ctx, securedb.TableAddresses, addressValues(mine, tenant, owner, uuid.New()), scope))

	err = client.InsertValidated(ctx, securedb.TableAddresses, addressValues(uuid.New(), tenant, uuid.New(), uuid.New()), scope)
	require.ErrorIs(t, err, securedb.ErrScopeViolation)

	_, err = client.FindScoped(ctx, securedb.TableAddresses, mine, scope)
	require.NoError(t, err)
}

func TestListScoped(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	unrestricted := authz.AccessScope{}
	for i, tenant := range []uuid.UUID{tenantA, tenantA, tenantB} {
		email := string(rune('a'+i)) + "@example.com"
		require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(uuid.New(), tenant, email), unrestricted))
	}

	t.Run("restricted to the caller's tenant", func(t *testing.T) {
		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{}, authz.ForTenants([]uuid.UUID{tenantA}))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		for _, row := range rows {
			assert.Equal(t, tenantA, row.UUID("tenant_id"))
		}
	})

	t.Run("empty tenant set lists nothing", func(t *testing.T) {
		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{}, authz.ForTenants(nil))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("unrestricted lists everything", func(t *testing.T) {
		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{}, unrestricted)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("ordering and paging", func(t *testing.T) {
		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{OrderBy: "email", Limit: 2}, unrestricted)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "a@example.com", rows[0].String("email"))
		assert.Equal(t, "b@example.com", rows[1].String("email"))
	})

	t.Run("declared filter composes with the scope", func(t *testing.T) {
		rows, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{
			Filters: []authz.Predicate{authz.Eq("email", "a@example.com")},
		}, authz.ForTenants([]uuid.UUID{tenantA}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "a@example.com", rows[0].String("email"))

		rows, err = client.ListScoped(ctx, securedb.TableUsers, securedb.Query{
			Filters: []authz.Predicate{authz.Eq("email", "c@example.com")},
		}, authz.ForTenants([]uuid.UUID{tenantA}))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("rejects a filter on an undeclared field", func(t *testing.T) {
		_, err := client.ListScoped(ctx, securedb.TableUsers, securedb.Query{
			Filters: []authz.Predicate{authz.Eq("nickname", "x")},
		}, unrestricted)
		require.Error(t, err)
	})
}

func TestUpdateScoped(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	id := uuid.New()

	scopeA := authz.ForTenants([]uuid.UUID{tenantA})
	require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenantA, "a@example.com"), scopeA))

	t.Run("touches the row inside the scope", func(t *testing.T) {
		affected, err := client.UpdateScoped(ctx, securedb.TableUsers, id, map[string]any{"display_name": "renamed"}, scopeA)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		row, err := client.FindScoped(ctx, securedb.TableUsers, id, scopeA)
		require.NoError(t, err)
		assert.Equal(t, "renamed", row.String("display_name"))
	})

	t.Run("touches nothing from another tenant", func(t *testing.T) {
		affected, err := client.UpdateScoped(ctx, securedb.TableUsers, id, map[string]any{"display_name": "stolen"}, authz.ForTenants([]uuid.UUID{tenantB}))
		require.NoError(t, err)
		assert.Zero(t, affected)

		row, err := client.FindScoped(ctx, securedb.TableUsers, id, scopeA)
		require.NoError(t, err)
		assert.Equal(t, "renamed", row.String("display_name"))
	})

	t.Run("cannot move the row out of the scope", func(t *testing.T) {
		_, err := client.UpdateScoped(ctx, securedb.TableUsers, id, map[string]any{"tenant_id": tenantB}, scopeA)
		require.ErrorIs(t, err, securedb.ErrScopeViolation)
	})
}

func TestDeleteScoped(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	id := uuid.New()

	scopeA := authz.ForTenants([]uuid.UUID{tenantA})
	require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenantA, "a@example.com"), scopeA))

	t.Run("removes nothing from another tenant", func(t *testing.T) {
		affected, err := client.DeleteScoped(ctx, securedb.TableUsers, id, authz.ForTenants([]uuid.UUID{tenantB}))
		require.NoError(t, err)
		assert.Zero(t, affected)
	})

	t.Run("removes the row inside the scope", func(t *testing.T) {
		affected, err := client.DeleteScoped(ctx, securedb.TableUsers, id, scopeA)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		_, err = client.FindScoped(ctx, securedb.TableUsers, id, scopeA)
		require.ErrorIs(t, err, securedb.ErrRowNotFound)
	})
}

func TestFindOneScoped(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenant := uuid.New()
	user := uuid.New()
	addr := uuid.New()

	scope := authz.ForTenants([]uuid.UUID{tenant})
	require.NoError(t, client.InsertValidated(ctx, securedb.TableAddresses, addressValues(addr, tenant, user, uuid.New()), scope))

	row, err := client.FindOneScoped(ctx, securedb.TableAddresses, []authz.Predicate{authz.Eq(securedb.FieldOwnerID, user)}, scope)
	require.NoError(t, err)
	assert.Equal(t, addr, row.UUID("id"))

	_, err = client.FindOneScoped(ctx, securedb.TableAddresses, []authz.Predicate{authz.Eq(securedb.FieldOwnerID, uuid.New())}, scope)
	require.ErrorIs(t, err, securedb.ErrRowNotFound)
}

func TestFindSystem(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenant := uuid.New()
	id := uuid.New()

	require.NoError(t, client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenant, "a@example.com"), authz.AccessScope{}))

	t.Run("refused outside an unscoped context", func(t *testing.T) {
		_, err := client.FindSystem(ctx, securedb.TableUsers, id)
		require.ErrorIs(t, err, securedb.ErrUnscopedRequired)
	})

	t.Run("reads across tenants inside one", func(t *testing.T) {
		authed := authz.NewTenantContext(ctx, uuid.New())

		row, err := authz.RunUnscoped(authed, "load parent row", func(ctx context.Context) (securedb.Row, error) {
			return client.FindSystem(ctx, securedb.TableUsers, id)
		})
		require.NoError(t, err)
		assert.Equal(t, id, row.UUID("id"))
	})
}

func TestRunInTransaction(t *testing.T) {
	client := securedbtest.New(t)
	ctx := context.Background()
	tenant := uuid.New()
	scope := authz.ForTenants([]uuid.UUID{tenant})

	t.Run("commits on success", func(t *testing.T) {
		id := uuid.New()

		err := client.RunInTransaction(ctx, func(ctx context.Context) error {
			return client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenant, "tx@example.com"), scope)
		})
		require.NoError(t, err)

		_, err = client.FindScoped(ctx, securedb.TableUsers, id, scope)
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		id := uuid.New()
		boom := errors.New("boom")

		err := client.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenant, "rollback@example.com"), scope); err != nil {
				return err
			}

			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = client.FindScoped(ctx, securedb.TableUsers, id, scope)
		require.ErrorIs(t, err, securedb.ErrRowNotFound)
	})

	t.Run("nested call joins the ambient transaction", func(t *testing.T) {
		id := uuid.New()

		err := client.RunInTransaction(ctx, func(ctx context.Context) error {
			return client.RunInTransaction(ctx, func(ctx context.Context) error {
				return client.InsertValidated(ctx, securedb.TableUsers, userValues(id, tenant, "nested@example.com"), scope)
			})
		})
		require.NoError(t, err)

		_, err = client.FindScoped(ctx, securedb.TableUsers, id, scope)
		require.NoError(t, err)
	})
}
