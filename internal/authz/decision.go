package authz

import (
	"errors"
	"fmt"
)

// Decision is the result of one policy evaluation: allow or deny, plus the
// constraint predicates the policy attaches. Constraints are meaningful only
// when Allow is true.
type Decision struct {
	Allow       bool
	Constraints []Predicate
}

// Denial reasons. Both surface to callers as Forbidden, never retried.
var (
	// ErrPolicyDenied is the explicit-refusal path: the policy evaluated
	// the request and said no.
	ErrPolicyDenied = errors.New("authz: access denied by policy")

	// ErrConstraintsRequired marks an allow decision with no constraints
	// where constraints are mandatory. An unscoped allow is
	// indistinguishable from "allow everything", which is never acceptable
	// for tenant-scoped data, so it is treated as a denial. This also
	// covers anonymous callers the policy has nothing to scope against.
	ErrConstraintsRequired = errors.New("authz: allow decision carries no constraints for tenant-scoped access")
)

// EvaluationError wraps a policy-evaluation failure: transport failure,
// malformed response, internal fault. It is NOT a policy decision and must
// never be interpreted as a denial.
type EvaluationError struct {
	cause error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("authz: policy evaluation failed: %v", e.cause)
}

func (e *EvaluationError) Unwrap() error {
	return e.cause
}

// IsEvaluationError reports whether err is (or wraps) an evaluation failure.
func IsEvaluationError(err error) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr)
}

// IsDenied reports whether err is a denial outcome of the decision matrix.
func IsDenied(err error) bool {
	return errors.Is(err, ErrPolicyDenied) || errors.Is(err, ErrConstraintsRequired)
}

// ResolveScope is the decision matrix: it maps a policy evaluation outcome
// to an enforceable AccessScope or a terminal error. The rules apply in this
// exact order so an evaluation failure is never downgraded to a denial and a
// denial is never promoted to a retryable fault:
//
//  1. evalErr != nil            -> *EvaluationError
//  2. !decision.Allow           -> ErrPolicyDenied
//  3. required constraints absent (non-root) -> ErrConstraintsRequired
//  4. otherwise                 -> tenant baseline AND constraints
//
// Root callers skip the tenant baseline and, per the invariant that root
// bypasses tenant isolation but not policy, they still honor every
// constraint the decision carries.
func ResolveScope(sc SecurityContext, decision Decision, evalErr error, requireConstraints bool) (AccessScope, error) {
	if evalErr != nil {
		return AccessScope{}, &EvaluationError{cause: evalErr}
	}

	if !decision.Allow {
		return AccessScope{}, ErrPolicyDenied
	}

	if requireConstraints && len(decision.Constraints) == 0 && !sc.Root {
		return AccessScope{}, ErrConstraintsRequired
	}

	if sc.Root {
		return AccessScope{}.And(decision.Constraints...), nil
	}

	// The baseline stays in place even for an empty tenant set: an empty
	// membership predicate matches no rows, so a misbehaving policy cannot
	// widen an anonymous caller's access.
	return ForTenants(sc.Tenants).And(decision.Constraints...), nil
}
