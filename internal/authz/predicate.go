package authz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Kind enumerates the predicate forms the enforcement layer understands. The
// set is closed on purpose: a policy constraint the store cannot enforce is
// rejected at the boundary instead of being silently dropped.
type Kind string

const (
	KindEq Kind = "eq"
	KindIn Kind = "in"
)

// Predicate is one enforceable row condition: a field compared for equality
// or membership. Values are normalized to strings at construction so that
// comparisons behave the same in memory and in SQL.
type Predicate struct {
	Kind   Kind     `json:"kind"`
	Field  string   `json:"field"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Eq builds an equality predicate on field.
func Eq(field string, value any) Predicate {
	return Predicate{Kind: KindEq, Field: field, Value: NormalizeValue(value)}
}

// In builds a membership predicate on field. With no values it matches
// nothing at all.
func In(field string, values ...any) Predicate {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		normalized = append(normalized, NormalizeValue(v))
	}

	return Predicate{Kind: KindIn, Field: field, Values: normalized}
}

// Validate reports whether the predicate is well formed.
func (p Predicate) Validate() error {
	switch p.Kind {
	case KindEq, KindIn:
	default:
		return fmt.Errorf("authz: unsupported predicate kind %q", p.Kind)
	}

	if p.Field == "" {
		return fmt.Errorf("authz: predicate without field")
	}

	return nil
}

// Matches reports whether value satisfies the predicate.
func (p Predicate) Matches(value any) bool {
	normalized := NormalizeValue(value)

	switch p.Kind {
	case KindEq:
		return normalized == p.Value
	case KindIn:
		for _, v := range p.Values {
			if normalized == v {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func (p Predicate) String() string {
	switch p.Kind {
	case KindIn:
		return fmt.Sprintf("%s in (%s)", p.Field, strings.Join(p.Values, ", "))
	default:
		return fmt.Sprintf("%s = %s", p.Field, p.Value)
	}
}

// UnmarshalJSON decodes a predicate from the policy wire format, rejecting
// unknown kinds and malformed shapes so a bad decision never reaches the
// store.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind   string          `json:"kind"`
		Field  string          `json:"field"`
		Value  json.RawMessage `json:"value"`
		Values []any           `json:"values"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("authz: decode predicate: %w", err)
	}

	switch Kind(raw.Kind) {
	case KindEq, KindIn:
	default:
		return fmt.Errorf("authz: unsupported predicate kind %q", raw.Kind)
	}

	if raw.Field == "" {
		return fmt.Errorf("authz: predicate without field")
	}

	if Kind(raw.Kind) == KindEq && raw.Value == nil {
		return fmt.Errorf("authz: eq predicate on %s without value", raw.Field)
	}

	p.Kind = Kind(raw.Kind)
	p.Field = raw.Field
	p.Value = ""
	p.Values = nil

	if raw.Value != nil {
		var value any
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return fmt.Errorf("authz: decode predicate value: %w", err)
		}

		p.Value = NormalizeValue(value)
	}

	if len(raw.Values) > 0 {
		p.Values = make([]string, 0, len(raw.Values))
		for _, v := range raw.Values {
			p.Values = append(p.Values, NormalizeValue(v))
		}
	}

	return nil
}

// NormalizeValue renders a value in the canonical string form predicates
// compare in. Identifiers stored as UUIDs and their textual form normalize
// to the same string.
func NormalizeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case uuid.UUID:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		if s, err := cast.ToStringE(value); err == nil {
			return s
		}

		return fmt.Sprintf("%v", value)
	}
}
