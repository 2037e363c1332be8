// Package policytest provides deterministic policy clients for tests:
// allow-all, deny-all, failing, and a predicate-echoing owner/city resolver.
package policytest

import (
	"context"
	"errors"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/policy"
)

// AllowAll allows every query, scoped to the caller's tenants. A caller
// with no tenants gets an allow with no constraints, which the decision
// matrix turns into a denial for tenant-scoped resources.
type AllowAll struct{}

func (AllowAll) Evaluate(_ context.Context, query policy.Query) (authz.Decision, error) {
	if len(query.Tenants) == 0 {
		return authz.Decision{Allow: true}, nil
	}

	values := make([]any, 0, len(query.Tenants))
	for _, tenant := range query.Tenants {
		values = append(values, tenant)
	}

	return authz.Decision{
		Allow:       true,
		Constraints: []authz.Predicate{authz.In(authz.FieldTenantID, values...)},
	}, nil
}

// DenyAll explicitly denies every query.
type DenyAll struct{}

func (DenyAll) Evaluate(context.Context, policy.Query) (authz.Decision, error) {
	return authz.Decision{Allow: false}, nil
}

// ErrEvaluation is the failure Failing returns.
var ErrEvaluation = errors.New("policytest: policy decision point unreachable")

// Failing simulates an unreachable or broken policy decision point.
type Failing struct{}

func (Failing) Evaluate(context.Context, policy.Query) (authz.Decision, error) {
	return authz.Decision{}, ErrEvaluation
}

// OwnerCity allows every query but pins access to the caller's subject as
// owner and echoes the queried resource's city back as a location
// constraint, on top of the tenant constraint. It mirrors a PDP that
// enforces "your own rows, in their current city".
type OwnerCity struct{}

func (OwnerCity) Evaluate(_ context.Context, query policy.Query) (authz.Decision, error) {
	constraints := []authz.Predicate{}

	if len(query.Tenants) > 0 {
		values := make([]any, 0, len(query.Tenants))
		for _, tenant := range query.Tenants {
			values = append(values, tenant)
		}

		constraints = append(constraints, authz.In(authz.FieldTenantID, values...))
	}

	if query.Subject != nil {
		constraints = append(constraints, authz.Eq("owner_id", *query.Subject))
	}

	if city, ok := query.Properties["city_id"]; ok {
		constraints = append(constraints, authz.Eq("city_id", authz.NormalizeValue(city)))
	}

	return authz.Decision{Allow: true, Constraints: constraints}, nil
}
