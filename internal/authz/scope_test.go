package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestForTenants(t *testing.T) {
	tenant := uuid.New()
	scope := ForTenants([]uuid.UUID{tenant})

	assert.Len(t, scope.Predicates, 1)
	assert.Equal(t, KindIn, scope.Predicates[0].Kind)
	assert.Equal(t, FieldTenantID, scope.Predicates[0].Field)
	assert.True(t, scope.Predicates[0].Matches(tenant))
}

func TestAndRetainsDuplicateFields(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	scope := AccessScope{}.
		And(Eq("city_id", a)).
		And(In("city_id", a, b))

	assert.Len(t, scope.Predicates, 2)

	// Both clauses apply: the conjunction is equivalent to the narrower one.
	_, ok := scope.MatchesValues(map[string]any{"city_id": a})
	assert.True(t, ok)

	violated, ok := scope.MatchesValues(map[string]any{"city_id": b})
	assert.False(t, ok)
	assert.Equal(t, "city_id", violated.Field)
}

func TestAndDoesNotMutateReceiver(t *testing.T) {
	base := ForTenants([]uuid.UUID{uuid.New()})
	widened := base.And(Eq("owner_id", uuid.New()))

	assert.Len(t, base.Predicates, 1)
	assert.Len(t, widened.Predicates, 2)
}

func TestMatchesValuesSkipsAbsentFields(t *testing.T) {
	scope := AccessScope{}.And(Eq("owner_id", uuid.New()))

	// The owner field is absent from the values, so only the stored row can
	// be checked against it, not the input.
	_, ok := scope.MatchesValues(map[string]any{"street": "Main St"})
	assert.True(t, ok)
}

func TestIsUnrestricted(t *testing.T) {
	assert.True(t, AccessScope{}.IsUnrestricted())
	assert.False(t, ForTenants([]uuid.UUID{uuid.New()}).IsUnrestricted())
}
