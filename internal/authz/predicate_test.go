package authz

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateMatches(t *testing.T) {
	owner := uuid.New()

	t.Run("eq matches same value", func(t *testing.T) {
		pred := Eq("owner_id", owner)
		assert.True(t, pred.Matches(owner))
		assert.True(t, pred.Matches(owner.String()))
	})

	t.Run("eq rejects different value", func(t *testing.T) {
		pred := Eq("owner_id", owner)
		assert.False(t, pred.Matches(uuid.New()))
	})

	t.Run("in matches member", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		pred := In("tenant_id", a, b)
		assert.True(t, pred.Matches(b))
		assert.True(t, pred.Matches(a.String()))
	})

	t.Run("in rejects non-member", func(t *testing.T) {
		pred := In("tenant_id", uuid.New())
		assert.False(t, pred.Matches(uuid.New()))
	})

	t.Run("empty in matches nothing", func(t *testing.T) {
		pred := In("tenant_id")
		assert.False(t, pred.Matches(uuid.New()))
		assert.False(t, pred.Matches(""))
	})
}

func TestPredicateValidate(t *testing.T) {
	require.NoError(t, Eq("f", 1).Validate())
	require.NoError(t, In("f", 1, 2).Validate())
	require.Error(t, Predicate{Kind: "gt", Field: "f"}.Validate())
	require.Error(t, Predicate{Kind: KindEq}.Validate())
}

func TestPredicateJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		pred := Eq("owner_id", "abc")

		data, err := json.Marshal(pred)
		require.NoError(t, err)

		var decoded Predicate
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, KindEq, decoded.Kind)
		assert.Equal(t, "owner_id", decoded.Field)
		assert.True(t, decoded.Matches("abc"))
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		var decoded Predicate
		err := json.Unmarshal([]byte(`{"kind":"regex","field":"name","value":".*"}`), &decoded)
		require.Error(t, err)
	})

	t.Run("eq without value rejected", func(t *testing.T) {
		var decoded Predicate
		err := json.Unmarshal([]byte(`{"kind":"eq","field":"name"}`), &decoded)
		require.Error(t, err)
	})

	t.Run("missing field rejected", func(t *testing.T) {
		var decoded Predicate
		err := json.Unmarshal([]byte(`{"kind":"eq","value":"x"}`), &decoded)
		require.Error(t, err)
	})
}
