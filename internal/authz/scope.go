package authz

import (
	"strings"

	"github.com/google/uuid"
)

// FieldTenantID is the logical field the tenant baseline filters on.
const FieldTenantID = "tenant_id"

// AccessScope is the enforceable row filter for one operation: an ordered
// conjunction of predicates. The zero value is an unrestricted scope, which
// the decision matrix only ever produces for root callers.
type AccessScope struct {
	Predicates []Predicate
}

// ForTenants builds a scope containing only the tenant baseline predicate.
func ForTenants(tenants []uuid.UUID) AccessScope {
	values := make([]any, 0, len(tenants))
	for _, tenant := range tenants {
		values = append(values, tenant)
	}

	return AccessScope{Predicates: []Predicate{In(FieldTenantID, values...)}}
}

// And returns a new scope with the given predicates appended. Predicates on
// the same field are all retained; the conjunction is the intersection.
func (s AccessScope) And(preds ...Predicate) AccessScope {
	combined := make([]Predicate, 0, len(s.Predicates)+len(preds))
	combined = append(combined, s.Predicates...)
	combined = append(combined, preds...)

	return AccessScope{Predicates: combined}
}

// IsUnrestricted reports whether the scope filters nothing.
func (s AccessScope) IsUnrestricted() bool {
	return len(s.Predicates) == 0
}

// MatchesValues checks every predicate whose field appears in values. Fields
// absent from values are not checked here, the scoped statement enforces
// them against the stored row.
func (s AccessScope) MatchesValues(values map[string]any) (Predicate, bool) {
	for _, pred := range s.Predicates {
		value, present := values[pred.Field]
		if !present {
			continue
		}

		if !pred.Matches(value) {
			return pred, false
		}
	}

	return Predicate{}, true
}

func (s AccessScope) String() string {
	if s.IsUnrestricted() {
		return "unrestricted"
	}

	parts := make([]string, 0, len(s.Predicates))
	for _, pred := range s.Predicates {
		parts = append(parts, pred.String())
	}

	return strings.Join(parts, " and ")
}
