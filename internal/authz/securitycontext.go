package authz

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// SecurityContext is the caller's identity for one request: an optional
// subject, the set of tenants the caller may act within, and a root flag.
// Root bypasses tenant filtering but never bypasses explicit policy denial.
// The identity pipeline constructs it; the core only reads it.
type SecurityContext struct {
	Subject *uuid.UUID
	Tenants []uuid.UUID
	Root    bool
}

// IsAnonymous reports whether the caller has no tenant to act within.
func (sc SecurityContext) IsAnonymous() bool {
	return !sc.Root && len(sc.Tenants) == 0
}

// HasTenant reports whether the caller may act within the given tenant.
func (sc SecurityContext) HasTenant(tenant uuid.UUID) bool {
	return sc.Root || slices.Contains(sc.Tenants, tenant)
}

// String returns a representation safe for audit logs.
func (sc SecurityContext) String() string {
	subject := "anonymous"
	if sc.Subject != nil {
		subject = sc.Subject.String()
	}

	if sc.Root {
		return fmt.Sprintf("root:%s", subject)
	}

	return fmt.Sprintf("subject:%s tenants:%d", subject, len(sc.Tenants))
}

// securityContextKey is an unexported key type to prevent external forgery.
type securityContextKey struct{}

// WithSecurityContext sets the SecurityContext, returns an error if a
// different one is already present. Each request carries exactly one
// identity; set-once semantics prevent identity mixing along the chain.
func WithSecurityContext(ctx context.Context, sc SecurityContext) (context.Context, error) {
	if existing, ok := GetSecurityContext(ctx); ok {
		if !securityContextEqual(existing, sc) {
			return ctx, fmt.Errorf("authz: security context conflict: existing=%s, new=%s", existing, sc)
		}

		return ctx, nil // Same identity, idempotent.
	}

	return context.WithValue(ctx, securityContextKey{}, sc), nil
}

// GetSecurityContext reads the SecurityContext.
func GetSecurityContext(ctx context.Context) (SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey{}).(SecurityContext)
	return sc, ok
}

// MustGetSecurityContext reads the SecurityContext, panics if absent. Used
// in chains where middleware has already installed it.
func MustGetSecurityContext(ctx context.Context) SecurityContext {
	sc, ok := GetSecurityContext(ctx)
	if !ok {
		panic("authz: no security context in context")
	}

	return sc
}

// NewTenantContext creates a context scoped to the given tenants.
func NewTenantContext(ctx context.Context, tenants ...uuid.UUID) context.Context {
	return context.WithValue(ctx, securityContextKey{}, SecurityContext{Tenants: tenants})
}

// NewSubjectContext creates a context for a subject acting within tenants.
func NewSubjectContext(ctx context.Context, subject uuid.UUID, tenants ...uuid.UUID) context.Context {
	return context.WithValue(ctx, securityContextKey{}, SecurityContext{Subject: &subject, Tenants: tenants})
}

// NewRootContext creates a context with the root flag set.
func NewRootContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, securityContextKey{}, SecurityContext{Root: true})
}

// NewAnonymousContext creates a context with no subject and no tenants.
func NewAnonymousContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, securityContextKey{}, SecurityContext{})
}

func securityContextEqual(a, b SecurityContext) bool {
	if a.Root != b.Root {
		return false
	}

	if !uuidPtrEqual(a.Subject, b.Subject) {
		return false
	}

	return slices.Equal(a.Tenants, b.Tenants)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}

	if a == nil || b == nil {
		return false
	}

	return *a == *b
}
