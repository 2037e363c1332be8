package policy

import (
	"context"

	"github.com/tenantguard/tenantguard/internal/authz"
)

// StaticResolver is the default development resolver: a caller with at
// least one tenant is allowed within exactly those tenants, anyone else is
// denied. No per-resource distinctions, no ownership constraints.
type StaticResolver struct{}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{}
}

func (r *StaticResolver) Evaluate(_ context.Context, query Query) (authz.Decision, error) {
	if len(query.Tenants) == 0 {
		return authz.Decision{Allow: false}, nil
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
