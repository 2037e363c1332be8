// Package authz implements the authorization model shared by the policy
// boundary and the storage layer: the caller's SecurityContext, the closed
// Predicate/AccessScope row-filter model, the decision matrix that turns a
// policy decision into an enforceable scope, and audited unscoped access for
// prefetch lookups.
//
// Core concepts:
//
//   - SecurityContext: one caller identity per request (subject, tenant set,
//     root flag). Installed once via WithSecurityContext or the New*Context
//     helpers; the core never constructs it.
//
//   - Predicate / AccessScope: a conjunctive row filter. The predicate kind
//     set is closed (Eq, In); unknown kinds are rejected when decoded.
//
//   - ResolveScope: the decision matrix. Evaluation failures map to
//     *EvaluationError, explicit denials to ErrPolicyDenied, unscoped allows
//     to ErrConstraintsRequired, in that order.
//
//   - Unscoped access: RunUnscoped closures (preferred) or
//     WithUnscopedAccess mark a context for system-level prefetch lookups.
//     All unscoped access is audited.
//
// Usage rules:
//
//  1. Never compare decision errors by string; use IsDenied and
//     IsEvaluationError.
//  2. Prefer RunUnscoped closures to limit how far unscoped capability
//     spreads; assign WithUnscopedAccess results to a dedicated variable,
//     never back to ctx.
//  3. Unscoped reads feed policy queries only; enforcement always happens in
//     the scoped statement.
package authz
