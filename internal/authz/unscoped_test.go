package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnscoped(t *testing.T) {
	ctx := NewTenantContext(context.Background(), uuid.New())

	t.Run("marks the closure context only", func(t *testing.T) {
		result, err := RunUnscoped(ctx, "test-prefetch", func(inner context.Context) (string, error) {
			assert.True(t, IsUnscopedActive(inner))
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.False(t, IsUnscopedActive(ctx))
	})

	t.Run("requires a security context", func(t *testing.T) {
		_, err := RunUnscoped(context.Background(), "test-prefetch", func(inner context.Context) (string, error) {
			t.Fatal("closure must not run")
			return "", nil
		})
		require.Error(t, err)
	})

	t.Run("requires a reason", func(t *testing.T) {
		_, err := WithUnscopedAccess(ctx, "")
		require.Error(t, err)
	})
}

func TestUnscopedAudit(t *testing.T) {
	var audited []UnscopedInfo

	SetAuditLogger(func(_ context.Context, info UnscopedInfo) {
		audited = append(audited, info)
	})
	defer SetAuditLogger(nil)

	ctx := NewRootContext(context.Background())

	_, err := RunUnscoped(ctx, "parent-tenant-lookup", func(inner context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	require.Len(t, audited, 1)
	assert.Equal(t, "parent-tenant-lookup", audited[0].Reason)
	assert.True(t, audited[0].Caller.Root)
}
