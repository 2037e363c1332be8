package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/log"
)

// RuleConfig is one configured policy rule. Rules are evaluated in order;
// the first rule whose match expression is true decides. No match means
// deny.
type RuleConfig struct {
	// Name identifies the rule in logs.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Match is a boolean expression over action, resource, subject,
	// tenants and properties, e.g.
	// `resource == "addresses" && action in ["update", "delete"]`.
	Match string `conf:"match" yaml:"match" json:"match"`

	// Effect is "allow" or "deny".
	Effect string `conf:"effect" yaml:"effect" json:"effect"`

	// Constraints are the predicates attached to an allow decision.
	Constraints []ConstraintConfig `conf:"constraints" yaml:"constraints" json:"constraints"`
}

// ConstraintConfig templates one constraint predicate. From selects where
// the value comes from: "subject", "tenants", "property:<name>", or
// "value" (the literal Value field).
type ConstraintConfig struct {
	Kind  string `conf:"kind" yaml:"kind" json:"kind"`
	Field string `conf:"field" yaml:"field" json:"field"`
	From  string `conf:"from" yaml:"from" json:"from"`
	Value any    `conf:"value" yaml:"value" json:"value"`
}

// RuleResolver evaluates the configured rule list with expr-compiled match
// programs. It lets deployments describe tenant-, owner- and location-based
// policies in configuration without an external PDP.
type RuleResolver struct {
	rules []compiledRule
}

type compiledRule struct {
	config  RuleConfig
	program *vm.Program
}

func NewRuleResolver(configs []RuleConfig) (*RuleResolver, error) {
	rules := make([]compiledRule, 0, len(configs))

	for i, cfg := range configs {
		if cfg.Effect != "allow" && cfg.Effect != "deny" {
			return nil, fmt.Errorf("policy: rule %d (%s): effect must be allow or deny", i, cfg.Name)
		}

		for _, constraint := range cfg.Constraints {
			if err := validateConstraint(constraint); err != nil {
				return nil, fmt.Errorf("policy: rule %d (%s): %w", i, cfg.Name, err)
			}
		}

		program, err := expr.Compile(cfg.Match, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("policy: rule %d (%s): compile match: %w", i, cfg.Name, err)
		}

		rules = append(rules, compiledRule{config: cfg, program: program})
	}

	return &RuleResolver{rules: rules}, nil
}

func validateConstraint(cfg ConstraintConfig) error {
	if cfg.Kind != string(authz.KindEq) && cfg.Kind != string(authz.KindIn) {
		return fmt.Errorf("constraint kind %q is not supported", cfg.Kind)
	}

	if cfg.Field == "" {
		return fmt.Errorf("constraint without field")
	}

	switch {
	case cfg.From == "subject", cfg.From == "tenants", cfg.From == "value":
		return nil
	case strings.HasPrefix(cfg.From, "property:"):
		return nil
	default:
		return fmt.Errorf("constraint source %q is not supported", cfg.From)
	}
}

func (r *RuleResolver) Evaluate(ctx context.Context, query Query) (authz.Decision, error) {
	env := ruleEnv(query)

	for _, rule := range r.rules {
		matched, err := expr.Run(rule.program, env)
		if err != nil {
			return authz.Decision{}, fmt.Errorf("policy: rule %s: run match: %w", rule.config.Name, err)
		}

		if !matched.(bool) {
			continue
		}

		log.Debug(ctx, "policy: rule matched",
			log.String("rule", rule.config.Name),
			log.String("action", query.Action),
			log.String("resource", query.Resource),
			log.String("effect", rule.config.Effect),
		)

		if rule.config.Effect == "deny" {
			return authz.Decision{Allow: false}, nil
		}

		return authz.Decision{
			Allow:       true,
			Constraints: buildConstraints(rule.config.Constraints, query),
		}, nil
	}

	return authz.Decision{Allow: false}, nil
}

func ruleEnv(query Query) map[string]any {
	subject := ""
	if query.Subject != nil {
		subject = query.Subject.String()
	}

	tenants := make([]string, 0, len(query.Tenants))
	for _, tenant := range query.Tenants {
		tenants = append(tenants, tenant.String())
	}

	properties := map[string]any{}
	for field, value := range query.Properties {
		properties[field] = authz.NormalizeValue(value)
	}

	return map[string]any{
		"action":     query.Action,
		"resource":   query.Resource,
		"subject":    subject,
		"tenants":    tenants,
		"properties": properties,
	}
}

func buildConstraints(configs []ConstraintConfig, query Query) []authz.Predicate {
	preds := make([]authz.Predicate, 0, len(configs))

	for _, cfg := range configs {
		switch {
		case cfg.From == "subject":
			// A missing subject yields a constraint that matches nothing,
			// a subject-bound rule never widens access for anonymous calls.
			subject := ""
			if query.Subject != nil {
				subject = query.Subject.String()
			}

			preds = append(preds, authz.Eq(cfg.Field, subject))
		case cfg.From == "tenants":
			values := make([]any, 0, len(query.Tenants))
			for _, tenant := range query.Tenants {
				values = append(values, tenant)
			}

			preds = append(preds, authz.In(cfg.Field, values...))
		case strings.HasPrefix(cfg.From, "property:"):
			name := strings.TrimPrefix(cfg.From, "property:")
			preds = append(preds, authz.Eq(cfg.Field, authz.NormalizeValue(query.Properties[name])))
		default: // value
			if cfg.Kind == string(authz.KindIn) {
				values, _ := cfg.Value.([]any)
				preds = append(preds, authz.In(cfg.Field, values...))
			} else {
				preds = append(preds, authz.Eq(cfg.Field, cfg.Value))
			}
		}
	}

	return preds
}
