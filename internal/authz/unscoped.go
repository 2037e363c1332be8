package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/tenantguard/tenantguard/internal/log"
)

// unscopedKey is an unexported key type to prevent external forgery.
type unscopedKey struct{}

// UnscopedInfo stores unscoped-access metadata for audit.
type UnscopedInfo struct {
	Reason    string
	Timestamp time.Time
	Caller    SecurityContext
}

// WithUnscopedAccess creates a local unscoped-access context. The storage
// layer refuses system-level lookups outside such a context, so every
// prefetch is deliberate and audited. reason must be a stable audit
// identifier (e.g. "address-prefetch", "parent-tenant-lookup").
//
// Unscoped access is informational only: it feeds facts to a policy query
// and is never an authorization basis. The scoped statement that follows
// re-applies the AccessScope independently.
func WithUnscopedAccess(ctx context.Context, reason string) (context.Context, error) {
	sc, ok := GetSecurityContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authz: WithUnscopedAccess requires a security context")
	}

	if reason == "" {
		return nil, fmt.Errorf("authz: WithUnscopedAccess requires a reason")
	}

	info := UnscopedInfo{
		Reason:    reason,
		Timestamp: time.Now(),
		Caller:    sc,
	}

	recordUnscopedAudit(ctx, info)

	return context.WithValue(ctx, unscopedKey{}, info), nil
}

// RunUnscoped executes fn within an unscoped-access closure, limiting how
// far the capability spreads along the call chain.
//
// Example usage:
//
//	row, err := authz.RunUnscoped(ctx, "address-prefetch", func(ctx context.Context) (map[string]any, error) {
//	    return db.FindSystem(ctx, addressTable, id)
//	})
func RunUnscoped[T any](ctx context.Context, reason string, fn func(ctx context.Context) (T, error)) (T, error) {
	unscopedCtx, err := WithUnscopedAccess(ctx, reason)
	if err != nil {
		var zero T
		return zero, err
	}

	return fn(unscopedCtx)
}

// GetUnscopedInfo retrieves the current unscoped-access information.
func GetUnscopedInfo(ctx context.Context) (UnscopedInfo, bool) {
	info, ok := ctx.Value(unscopedKey{}).(UnscopedInfo)
	return info, ok
}

// IsUnscopedActive checks whether the context allows unscoped lookups.
func IsUnscopedActive(ctx context.Context) bool {
	_, ok := ctx.Value(unscopedKey{}).(UnscopedInfo)
	return ok
}

// auditLogger is the unscoped-access audit logger, settable for tests and
// external audit sinks.
var auditLogger func(ctx context.Context, info UnscopedInfo)

// SetAuditLogger sets a custom audit logger. If not set, entries go to the
// standard structured log.
func SetAuditLogger(fn func(ctx context.Context, info UnscopedInfo)) {
	auditLogger = fn
}

func recordUnscopedAudit(ctx context.Context, info UnscopedInfo) {
	if auditLogger != nil {
		auditLogger(ctx, info)
		return
	}

	log.Debug(ctx, "authz: unscoped access",
		log.String("caller", info.Caller.String()),
		log.String("reason", info.Reason),
	)
}
