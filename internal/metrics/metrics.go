// Package metrics wires the OpenTelemetry meter provider and the
// authorization instruments.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type Config struct {
	Enabled  bool          `conf:"enabled" yaml:"enabled" json:"enabled"`
	Exporter string        `conf:"exporter" yaml:"exporter" json:"exporter"`
	Interval time.Duration `conf:"interval" yaml:"interval" json:"interval"`
}

// Decision outcomes recorded on the authorization counter.
const (
	OutcomeScoped             = "scoped"
	OutcomeDenied             = "denied"
	OutcomeMissingConstraints = "missing_constraints"
	OutcomeError              = "error"
)

var (
	decisions   metric.Int64Counter
	entityCount metric.Int64Gauge
)

// NewProvider builds the meter provider from config. A disabled config yields
// a nil provider, which callers treat as metrics off.
func NewProvider(cfg Config) (*sdk.MeterProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	switch cfg.Exporter {
	case "", "stdout":
	default:
		return nil, fmt.Errorf("metrics: unsupported exporter %q", cfg.Exporter)
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("metrics: build exporter: %w", err)
	}

	provider := sdk.NewMeterProvider(
		sdk.WithReader(sdk.NewPeriodicReader(exporter, sdk.WithInterval(interval))),
		sdk.WithResource(resource.Default()),
	)

	return provider, nil
}

// SetupMetrics installs the provider globally and creates the instruments.
func SetupMetrics(provider *sdk.MeterProvider, serviceName string) error {
	otel.SetMeterProvider(provider)

	meter := otel.Meter(serviceName)

	var err error

	decisions, err = meter.Int64Counter(
		"authz_decisions_total",
		metric.WithDescription("Authorization decisions by outcome"),
	)
	if err != nil {
		return fmt.Errorf("metrics: create decision counter: %w", err)
	}

	entityCount, err = meter.Int64Gauge(
		"entity_rows",
		metric.WithDescription("Stored rows per entity"),
	)
	if err != nil {
		return fmt.Errorf("metrics: create entity gauge: %w", err)
	}

	return nil
}

// RecordDecision counts one authorization decision. Safe to call when metrics
// are off.
func RecordDecision(ctx context.Context, action, resourceName, outcome string) {
	if decisions == nil {
		return
	}

	decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("resource", resourceName),
		attribute.String("outcome", outcome),
	))
}

// RecordEntityCount publishes the stored row count of one entity.
func RecordEntityCount(ctx context.Context, entity string, count int64) {
	if entityCount == nil {
		return
	}

	entityCount.Record(ctx, count, metric.WithAttributes(attribute.String("entity", entity)))
}
