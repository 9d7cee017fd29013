package monitoring

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/healthyplate/server/recipes"

// BusinessMetrics counts recipe service outcomes with OpenTelemetry
// instruments exported through the Prometheus registry
type BusinessMetrics struct {
	provider    *sdkmetric.MeterProvider
	fallbacks   metric.Int64Counter
	generations metric.Int64Counter
	cacheLookup metric.Int64Counter
}

// NewBusinessMetrics creates a meter provider whose reader registers on reg
func NewBusinessMetrics(reg promclient.Registerer) (*BusinessMetrics, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	m := &BusinessMetrics{provider: provider}
	if m.fallbacks, err = meter.Int64Counter("recipe.fallbacks",
		metric.WithDescription("Responses served from the fallback catalog")); err != nil {
		return nil, err
	}
	if m.generations, err = meter.Int64Counter("recipe.generations",
		metric.WithDescription("Recorded recipe generations")); err != nil {
		return nil, err
	}
	if m.cacheLookup, err = meter.Int64Counter("recipe.cache.lookups",
		metric.WithDescription("Recipe cache lookups by outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// FallbackServed counts a response answered from the fallback catalog
func (m *BusinessMetrics) FallbackServed(ctx context.Context, op string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// GenerationRecorded counts a stored generation
func (m *BusinessMetrics) GenerationRecorded(ctx context.Context, archived bool) {
	m.generations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("archived", archived)))
}

// CacheLookup counts a cache hit or miss
func (m *BusinessMetrics) CacheLookup(ctx context.Context, kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookup.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// Shutdown stops the meter provider
func (m *BusinessMetrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
