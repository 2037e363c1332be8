// Package policy defines the boundary to the external policy decision
// point (PDP) and the resolvers shipped with the server. The core consumes
// the Client interface only; any evaluation failure it returns is surfaced
// as an internal error by the decision matrix, never as a denial.
package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenantguard/tenantguard/internal/authz"
)

// Query describes one authorization question: who wants to do what to which
// resource, optionally with a snapshot of the resource's current properties.
type Query struct {
	// Action is the operation being attempted: create, read, update,
	// delete or list.
	Action string `json:"action"`

	// Resource is the logical resource type, e.g. "users".
	Resource string `json:"resource"`

	// Subject is the caller's subject identifier, if any.
	Subject *uuid.UUID `json:"subject,omitempty"`

	// Tenants is the set of tenants the caller may act within.
	Tenants []uuid.UUID `json:"tenants,omitempty"`

	// Properties is the scope-relevant field snapshot of the concrete
	// resource, captured immediately before the decision. Ephemeral, never
	// persisted.
	Properties map[string]any `json:"properties,omitempty"`
}

// Client evaluates authorization queries against a policy decision point.
//
// Implementations must distinguish "the policy said no" (a Decision with
// Allow=false, err=nil) from "the evaluation failed" (err != nil). The
// decision matrix depends on that distinction.
type Client interface {
	Evaluate(ctx context.Context, query Query) (authz.Decision, error)
}

// Config selects and configures the policy resolver.
type Config struct {
	// Mode is one of "static", "rules", "http".
	Mode string `conf:"mode" yaml:"mode" json:"mode"`

	// Endpoint is the PDP endpoint for http mode.
	Endpoint HTTPConfig `conf:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Rules configures the rules mode.
	Rules []RuleConfig `conf:"rules" yaml:"rules" json:"rules"`
}

// NewClient builds the configured policy client.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Mode {
	case "", "static":
		return NewStaticResolver(), nil
	case "rules":
		return NewRuleResolver(cfg.Rules)
	case "http":
		return NewHTTPClient(cfg.Endpoint), nil
	default:
		return nil, &ConfigError{Mode: cfg.Mode}
	}
}

// ConfigError reports an unsupported policy mode.
type ConfigError struct {
	Mode string
}

func (e *ConfigError) Error() string {
	return "policy: unsupported mode " + e.Mode
}
