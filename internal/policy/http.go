package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/log"
)

// HTTPConfig configures the HTTP policy client.
type HTTPConfig struct {
	// URL is the PDP evaluate endpoint.
	URL string `conf:"url" yaml:"url" json:"url"`

	// Timeout bounds one evaluation round trip.
	Timeout time.Duration `conf:"timeout" yaml:"timeout" json:"timeout"`

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string `conf:"auth_token" yaml:"auth_token" json:"auth_token"`
}

// HTTPClient talks to an external PDP over JSON. It performs no retries:
// retry policy belongs to the PDP client stack, not the enforcement core.
// Every transport or decode failure is returned as an error so the decision
// matrix can surface it as an internal fault rather than a denial.
type HTTPClient struct {
	config HTTPConfig
	client *http.Client
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPClient{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// decisionResponse is the PDP wire format. Constraint decoding goes through
// the closed predicate codec, unknown kinds fail the evaluation.
type decisionResponse struct {
	Allow       bool              `json:"allow"`
	Constraints []authz.Predicate `json:"constraints,omitempty"`
}

func (c *HTTPClient) Evaluate(ctx context.Context, query Query) (authz.Decision, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return authz.Decision{}, fmt.Errorf("policy: encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return authz.Decision{}, fmt.Errorf("policy: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return authz.Decision{}, fmt.Errorf("policy: evaluate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the payload is untrusted
		// and is not echoed into errors beyond the status code.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return authz.Decision{}, fmt.Errorf("policy: evaluate returned status %d", resp.StatusCode)
	}

	var decoded decisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return authz.Decision{}, fmt.Errorf("policy: decode decision: %w", err)
	}

	log.Debug(ctx, "policy: decision received",
		log.String("action", query.Action),
		log.String("resource", query.Resource),
		log.Bool("allow", decoded.Allow),
		log.Int("constraints", len(decoded.Constraints)),
	)

	return authz.Decision{Allow: decoded.Allow, Constraints: decoded.Constraints}, nil
}
