package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientEvaluate(t *testing.T) {
	subject := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var query Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		assert.Equal(t, "update", query.Action)
		assert.Equal(t, "addresses", query.Resource)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"allow": true,
			"constraints": []map[string]any{
				{"kind": "eq", "field": "owner_id", "value": query.Subject},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{URL: server.URL, AuthToken: "secret"})

	decision, err := client.Evaluate(context.Background(), Query{
		Action:   "update",
		Resource: "addresses",
		Subject:  &subject,
	})
	require.NoError(t, err)
	assert.True(t, decision.Allow)
	require.Len(t, decision.Constraints, 1)
	assert.True(t, decision.Constraints[0].Matches(subject))
}

func TestHTTPClientFailures(t *testing.T) {
	t.Run("non-200 status is an evaluation failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewHTTPClient(HTTPConfig{URL: server.URL}).Evaluate(context.Background(), Query{})
		require.Error(t, err)
	})

	t.Run("malformed body is an evaluation failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer server.Close()

		_, err := NewHTTPClient(HTTPConfig{URL: server.URL}).Evaluate(context.Background(), Query{})
		require.Error(t, err)
	})

	t.Run("unknown predicate kind is an evaluation failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"allow":true,"constraints":[{"kind":"regex","field":"name","value":".*"}]}`))
		}))
		defer server.Close()

		_, err := NewHTTPClient(HTTPConfig{URL: server.URL}).Evaluate(context.Background(), Query{})
		require.Error(t, err)
	})

	t.Run("unreachable endpoint is an evaluation failure", func(t *testing.T) {
		_, err := NewHTTPClient(HTTPConfig{URL: "http://127.0.0.1:1/evaluate"}).Evaluate(context.Background(), Query{})
		require.Error(t, err)
	})
}
