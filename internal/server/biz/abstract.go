package biz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/log"
	"github.com/tenantguard/tenantguard/internal/metrics"
	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

// AbstractService carries the collaborators every domain service shares: the
// scoped store and the policy client. Services embed it.
type AbstractService struct {
	db     *securedb.Client
	policy policy.Client
}

// RunInTransaction runs fn inside one store transaction.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return a.db.RunInTransaction(ctx, fn)
}

// authorize evaluates the policy for one operation and resolves the decision
// into an enforceable scope. Every failure comes back already folded into the
// caller-facing taxonomy; the raw decision never leaves this method.
//
// Constraints are mandatory here: tenant-scoped data must never be reachable
// through an allow decision the policy forgot to scope. Root callers are the
// one exception the matrix itself carves out.
func (a *AbstractService) authorize(ctx context.Context, action, resource string, properties map[string]any) (authz.AccessScope, error) {
	sc, _ := authz.GetSecurityContext(ctx)

	decision, evalErr := a.policy.Evaluate(ctx, policy.Query{
		Action:     action,
		Resource:   resource,
		Subject:    sc.Subject,
		Tenants:    sc.Tenants,
		Properties: properties,
	})

	scope, err := authz.ResolveScope(sc, decision, evalErr, true)
	if err != nil {
		outcome := metrics.OutcomeDenied
		if authz.IsEvaluationError(err) {
			outcome = metrics.OutcomeError

			log.Error(ctx, "policy evaluation failed",
				log.String("action", action),
				log.String("resource", resource),
				log.Cause(err),
			)
		} else {
			if errors.Is(err, authz.ErrConstraintsRequired) {
				outcome = metrics.OutcomeMissingConstraints
			}

			log.Debug(ctx, "access denied",
				log.String("action", action),
				log.String("resource", resource),
				log.String("security_context", sc.String()),
			)
		}

		metrics.RecordDecision(ctx, action, resource, outcome)

		return authz.AccessScope{}, taxonomyError(err)
	}

	metrics.RecordDecision(ctx, action, resource, metrics.OutcomeScoped)

	return scope, nil
}

// prefetch loads a row by primary key without scope restriction, under the
// audited unscoped marker. The result only ever feeds the policy query as
// resource properties; it is never the authorization basis, the scoped
// statement that follows re-applies the resolved scope in full.
func (a *AbstractService) prefetch(ctx context.Context, table securedb.Table, id uuid.UUID) (securedb.Row, error) {
	sc, ok := authz.GetSecurityContext(ctx)
	if !ok || sc.IsAnonymous() {
		// No tenant to scope against: refuse before touching storage, so an
		// anonymous caller cannot probe row existence through the
		// NotFound/Forbidden split.
		return nil, ErrForbidden
	}

	row, err := authz.RunUnscoped(ctx, "prefetch resource properties", func(ctx context.Context) (securedb.Row, error) {
		return a.db.FindSystem(ctx, table, id)
	})
	if err != nil {
		return nil, taxonomyError(err)
	}

	return row, nil
}

// callerTenant resolves the tenant a top-level create lands in, before any
// policy round trip. An anonymous caller is refused outright. An explicit
// tenant wins (and is later checked against the scope like any other value);
// otherwise a caller with exactly one tenant uses it. Anything else is a
// validation failure, never a guess.
func callerTenant(ctx context.Context, explicit *uuid.UUID) (uuid.UUID, error) {
	sc, ok := authz.GetSecurityContext(ctx)
	if !ok || sc.IsAnonymous() {
		return uuid.Nil, ErrForbidden
	}

	if explicit != nil {
		return *explicit, nil
	}

	if len(sc.Tenants) == 1 {
		return sc.Tenants[0], nil
	}

	return uuid.Nil, ErrValidation
}
