package biz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/policy/policytest"
)

// Every operation must fold an explicit policy denial into Forbidden and a
// policy evaluation failure into Internal. The two must never blur: an
// unreachable decision point is not a denial, and a denial is not a fault.

func TestPolicyDenialIsForbiddenEverywhere(t *testing.T) {
	seeded := newTestServices(t, policytest.AllowAll{})
	tenant := uuid.New()
	ctx := authz.NewTenantContext(context.Background(), tenant)

	user, err := seeded.Users.CreateUser(ctx, objects.CreateUserInput{Email: "a@example.com", DisplayName: "A"})
	require.NoError(t, err)

	city, err := seeded.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
	require.NoError(t, err)

	svcs := seeded.withPolicy(policytest.DenyAll{})

	ops := map[string]func() error{
		"create user": func() error {
			_, err := svcs.Users.CreateUser(ctx, objects.CreateUserInput{Email: "b@example.com", DisplayName: "B"})
			return err
		},
		"get user": func() error {
			_, err := svcs.Users.GetUser(ctx, user.ID)
			return err
		},
		"list users": func() error {
			_, err := svcs.Users.ListUsers(ctx, ListUsersQuery{})
			return err
		},
		"update user": func() error {
			_, err := svcs.Users.UpdateUser(ctx, user.ID, objects.UpdateUserInput{DisplayName: ptr("B")})
			return err
		},
		"delete user": func() error {
			return svcs.Users.DeleteUser(ctx, user.ID)
		},
		"create city": func() error {
			_, err := svcs.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "Porto", Country: "PT"})
			return err
		},
		"get city": func() error {
			_, err := svcs.Cities.GetCity(ctx, city.ID)
			return err
		},
		"create address": func() error {
			_, err := svcs.Addresses.CreateAddress(ctx, objects.CreateAddressInput{
				UserID: user.ID, CityID: city.ID, Street: "1 Main St", PostalCode: "00100",
			})
			return err
		},
		"get user address": func() error {
			_, err := svcs.Addresses.GetUserAddress(ctx, user.ID)
			return err
		},
		"put user address": func() error {
			_, err := svcs.Addresses.PutUserAddress(ctx, user.ID, objects.UpsertAddressInput{
				CityID: city.ID, Street: "1 Main St", PostalCode: "00100",
			})
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.True(t, IsForbidden(err), "got %v", err)
			require.False(t, IsInternal(err))
		})
	}
}

func TestPolicyFailureIsInternalEverywhere(t *testing.T) {
	seeded := newTestServices(t, policytest.AllowAll{})
	tenant := uuid.New()
	ctx := authz.NewTenantContext(context.Background(), tenant)

	user, err := seeded.Users.CreateUser(ctx, objects.CreateUserInput{Email: "a@example.com", DisplayName: "A"})
	require.NoError(t, err)

	city, err := seeded.Cities.CreateCity(ctx, objects.CreateCityInput{Name: "Lisbon", Country: "PT"})
	require.NoError(t, err)

	svcs := seeded.withPolicy(policytest.Failing{})

	ops := map[string]func() error{
		"create user": func() error {
			_, err := svcs.Users.CreateUser(ctx, objects.CreateUserInput{Email: "b@example.com", DisplayName: "B"})
			return err
		},
		"get user": func() error {
			_, err := svcs.Users.GetUser(ctx, user.ID)
			return err
		},
		"list users": func() error {
			_, err := svcs.Users.ListUsers(ctx, ListUsersQuery{})
			return err
		},
		"update user": func() error {
			_, err := svcs.Users.UpdateUser(ctx, user.ID, objects.UpdateUserInput{DisplayName: ptr("B")})
			return err
		},
		"delete user": func() error {
			return svcs.Users.DeleteUser(ctx, user.ID)
		},
		"list cities": func() error {
			_, err := svcs.Cities.ListCities(ctx, ListCitiesQuery{})
			return err
		},
		"update city": func() error {
			_, err := svcs.Cities.UpdateCity(ctx, city.ID, objects.UpdateCityInput{Name: ptr("Porto")})
			return err
		},
		"create address": func() error {
			_, err := svcs.Addresses.CreateAddress(ctx, objects.CreateAddressInput{
				UserID: user.ID, CityID: city.ID, Street: "1 Main St", PostalCode: "00100",
			})
			return err
		},
		"put user address": func() error {
			_, err := svcs.Addresses.PutUserAddress(ctx, user.ID, objects.UpsertAddressInput{
				CityID: city.ID, Street: "1 Main St", PostalCode: "00100",
			})
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.True(t, IsInternal(err), "got %v", err)
			require.False(t, IsForbidden(err))
		})
	}

	t.Run("nothing was written along the way", func(t *testing.T) {
		users, err := seeded.Users.ListUsers(ctx, ListUsersQuery{})
		require.NoError(t, err)
		require.Len(t, users, 1)

		_, err = seeded.Addresses.GetUserAddress(ctx, user.ID)
		require.True(t, IsNotFound(err), "got %v", err)
	})
}
