package xcache

import (
	"time"

	"github.com/eko/gocache/lib/v4/store"
)

// Option is re-exported so callers never import the store package directly.
type Option = store.Option

func WithExpiration(expiration time.Duration) Option {
	return store.WithExpiration(expiration)
}
