package biz

import (
	"testing"

	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
	"github.com/tenantguard/tenantguard/internal/securedb/securedbtest"
)

type testServices struct {
	DB        *securedb.Client
	Users     *UserService
	Cities    *CityService
	Addresses *AddressService
}

func newTestServices(t *testing.T, pc policy.Client) *testServices {
	t.Helper()

	db := securedbtest.New(t)

	return &testServices{
		DB:        db,
		Users:     NewUserService(UserServiceParams{DB: db, Policy: pc}),
		Cities:    NewCityService(CityServiceParams{DB: db, Policy: pc}),
		Addresses: NewAddressService(AddressServiceParams{DB: db, Policy: pc}),
	}
}

// withPolicy builds sibling services over the same store with a different
// policy client, for suites that exercise one store under several policies.
func (s *testServices) withPolicy(pc policy.Client) *testServices {
	return &testServices{
		DB:        s.DB,
		Users:     NewUserService(UserServiceParams{DB: s.DB, Policy: pc}),
		Cities:    NewCityService(CityServiceParams{DB: s.DB, Policy: pc}),
		Addresses: NewAddressService(AddressServiceParams{DB: s.DB, Policy: pc}),
	}
}

func ptr[T any](v T) *T {
	return &v
}
