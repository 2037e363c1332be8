package policy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantguard/tenantguard/internal/authz"
)

func ownerRules(t *testing.T) *RuleResolver {
	t.Helper()

	resolver, err := NewRuleResolver([]RuleConfig{
		{
			Name:   "deny-city-deletes",
			Match:  `resource == "cities" && action == "delete"`,
			Effect: "deny",
		},
		{
			Name:   "own-addresses",
			Match:  `resource == "addresses"`,
			Effect: "allow",
			Constraints: []ConstraintConfig{
				{Kind: "in", Field: authz.FieldTenantID, From: "tenants"},
				{Kind: "eq", Field: "owner_id", From: "subject"},
			},
		},
		{
			Name:   "tenant-wide",
			Match:  `true`,
			Effect: "allow",
			Constraints: []ConstraintConfig{
				{Kind: "in", Field: authz.FieldTenantID, From: "tenants"},
			},
		},
	})
	require.NoError(t, err)

	return resolver
}

func TestRuleResolverFirstMatchWins(t *testing.T) {
	resolver := ownerRules(t)
	subject := uuid.New()
	tenant := uuid.New()

	t.Run("deny rule short-circuits", func(t *testing.T) {
		decision, err := resolver.Evaluate(context.Background(), Query{
			Action:   "delete",
			Resource: "cities",
			Subject:  &subject,
			Tenants:  []uuid.UUID{tenant},
		})
		require.NoError(t, err)
		assert.False(t, decision.Allow)
	})

	t.Run("owner constraint binds the subject", func(t *testing.T) {
		decision, err := resolver.Evaluate(context.Background(), Query{
			Action:   "update",
			Resource: "addresses",
			Subject:  &subject,
			Tenants:  []uuid.UUID{tenant},
		})
		require.NoError(t, err)
		require.True(t, decision.Allow)
		require.Len(t, decision.Constraints, 2)
		assert.Equal(t, "owner_id", decision.Constraints[1].Field)
		assert.True(t, decision.Constraints[1].Matches(subject))
	})

	t.Run("fallthrough rule applies tenant constraint only", func(t *testing.T) {
		decision, err := resolver.Evaluate(context.Background(), Query{
			Action:   "list",
			Resource: "users",
			Tenants:  []uuid.UUID{tenant},
		})
		require.NoError(t, err)
		require.True(t, decision.Allow)
		require.Len(t, decision.Constraints, 1)
		assert.True(t, decision.Constraints[0].Matches(tenant))
	})
}

func TestRuleResolverNoMatchDenies(t *testing.T) {
	resolver, err := NewRuleResolver([]RuleConfig{
		{Name: "users-only", Match: `resource == "users"`, Effect: "allow"},
	})
	require.NoError(t, err)

	decision, err := resolver.Evaluate(context.Background(), Query{Action: "list", Resource: "cities"})
	require.NoError(t, err)
	assert.False(t, decision.Allow)
}

func TestRuleResolverPropertyConstraint(t *testing.T) {
	resolver, err := NewRuleResolver([]RuleConfig{
		{
			Name:   "pin-city",
			Match:  `resource == "addresses"`,
			Effect: "allow",
			Constraints: []ConstraintConfig{
				{Kind: "eq", Field: "city_id", From: "property:city_id"},
			},
		},
	})
	require.NoError(t, err)

	city := uuid.New()

	decision, err := resolver.Evaluate(context.Background(), Query{
		Action:     "update",
		Resource:   "addresses",
		Properties: map[string]any{"city_id": city},
	})
	require.NoError(t, err)
	require.True(t, decision.Allow)
	require.Len(t, decision.Constraints, 1)
	assert.True(t, decision.Constraints[0].Matches(city))
}

func TestRuleResolverAnonymousSubjectMatchesNothing(t *testing.T) {
	resolver := ownerRules(t)

	decision, err := resolver.Evaluate(context.Background(), Query{
		Action:   "list",
		Resource: "addresses",
		Tenants:  []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	require.True(t, decision.Allow)
	require.Len(t, decision.Constraints, 2)
	assert.False(t, decision.Constraints[1].Matches(uuid.New()))
}

func TestNewRuleResolverValidation(t *testing.T) {
	t.Run("bad effect", func(t *testing.T) {
		_, err := NewRuleResolver([]RuleConfig{{Name: "r", Match: "true", Effect: "audit"}})
		require.Error(t, err)
	})

	t.Run("bad constraint kind", func(t *testing.T) {
		_, err := NewRuleResolver([]RuleConfig{{
			Name: "r", Match: "true", Effect: "allow",
			Constraints: []ConstraintConfig{{Kind: "gt", Field: "f", From: "subject"}},
		}})
		require.Error(t, err)
	})

	t.Run("bad constraint source", func(t *testing.T) {
		_, err := NewRuleResolver([]RuleConfig{{
			Name: "r", Match: "true", Effect: "allow",
			Constraints: []ConstraintConfig{{Kind: "eq", Field: "f", From: "header:x"}},
		}})
		require.Error(t, err)
	})

	t.Run("bad match expression", func(t *testing.T) {
		_, err := NewRuleResolver([]RuleConfig{{Name: "r", Match: "action ==", Effect: "allow"}})
		require.Error(t, err)
	})
}
