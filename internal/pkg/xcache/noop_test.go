package xcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	cache := NewNoop[string]()

	_, err := cache.Get(ctx, "test-key")
	assert.ErrorIs(t, err, ErrCacheNotConfigured)

	err = cache.Set(ctx, "test-key", "test-value")
	assert.NoError(t, err)

	// Still a miss after Set.
	_, err = cache.Get(ctx, "test-key")
	assert.ErrorIs(t, err, ErrCacheNotConfigured)

	assert.NoError(t, cache.Delete(ctx, "test-key"))
	assert.NoError(t, cache.Clear(ctx))
	assert.NoError(t, cache.Invalidate(ctx))
	assert.Equal(t, "noop", cache.GetType())
}
