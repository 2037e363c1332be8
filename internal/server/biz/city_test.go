package biz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/policy/policytest"
)

func TestCityCRUD(t *testing.T) {
	svcs := newTestServices(t, policytest.AllowAll{})
	tenant := uuid.New()
	ctx := authz.NewTenantContext(context.Background(), tenant)

	city, err := svcs.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
	require.NoError(t, err)
	assert.Equal(t, tenant, city.TenantID)

	t.Run("duplicate name in the tenant is refused", func(t *testing.T) {
		_, err := svcs.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
		require.True(t, IsValidation(err), "got %v", err)
	})

	t.Run("missing fields are a validation failure", func(t *testing.T) {
		_, err := svcs.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "", Country: "PT"})
		require.True(t, IsValidation(err), "got %v", err)
	})

	t.Run("update and read back", func(t *testing.T) {
		updated, err := svcs.Cities.UpdateCity(ctx, city.ID, objects.UpdateCityInput{Name: ptr("Lisboa")})
		require.NoError(t, err)
		assert.Equal(t, "Lisboa", updated.Name)
		assert.Equal(t, "PT", updated.Country)

		got, err := svcs.Cities.GetCity(ctx, city.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lisboa", got.Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svcs.Cities.DeleteCity(ctx, city.ID))

		_, err := svcs.Cities.GetCity(ctx, city.ID)
		require.True(t, IsNotFound(err), "got %v", err)

		err = svcs.Cities.DeleteCity(ctx, city.ID)
		require.True(t, IsNotFound(err), "got %v", err)
	})
}

func TestCityTenantIsolation(t *testing.T) {
	svcs := newTestServices(t, policytest.AllowAll{})
	tenantA, tenantB := uuid.New(), uuid.New()
	ctxA := authz.NewTenantContext(context.Background(), tenantA)
	ctxB := authz.NewTenantContext(context.Background(), tenantB)

	lisbon, err := svcs.Cities.CreateCity(ctxA, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
	require.NoError(t, err)

	_, err = svcs.Cities.CreateCity(ctxB, objects.CreateCityInput{Name: "Berlin", Country: "DE"})
	require.NoError(t, err)

	t.Run("same name in another tenant is fine", func(t *testing.T) {
		_, err := svcs.Cities.CreateCity(ctxB, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
		require.NoError(t, err)
	})

	t.Run("reads and lists stay inside the tenant", func(t *testing.T) {
		_, err := svcs.Cities.GetCity(ctxB, lisbon.ID)
		require.True(t, IsNotFound(err), "got %v", err)

		cities, err := svcs.Cities.ListCities(ctxA, ListCitiesQuery{})
		require.NoError(t, err)
		require.Len(t, cities, 1)
		assert.Equal(t, lisbon.ID, cities[0].ID)
	})

	t.Run("country filter composes with the tenant scope", func(t *testing.T) {
		cities, err := svcs.Cities.ListCities(ctxA, ListCitiesQuery{Country: ptr("PT")})
		require.NoError(t, err)
		require.Len(t, cities, 1)
		assert.Equal(t, lisbon.ID, cities[0].ID)

		cities, err = svcs.Cities.ListCities(ctxA, ListCitiesQuery{Country: ptr("DE")})
		require.NoError(t, err)
		assert.Empty(t, cities)
	})

	t.Run("cross-tenant update and delete are refused", func(t *testing.T) {
		_, err := svcs.Cities.UpdateCity(ctxB, lisbon.ID, objects.UpdateCityInput{Name: ptr("Stolen")})
		require.True(t, IsForbidden(err), "got %v", err)

		err = svcs.Cities.DeleteCity(ctxB, lisbon.ID)
		require.True(t, IsForbidden(err), "got %v", err)
	})
}
