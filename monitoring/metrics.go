package monitoring

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics emits OTel counters for the triggers ContractMonitor fires,
// mirroring the teacher framework's zero-configuration OTel wiring
// (pkg/telemetry/otel.go) scaled down to the one instrument this kernel
// needs: a trigger counter labeled by kind.
type Metrics struct {
	triggerCount metric.Int64Counter
}

// NewMetrics builds a Metrics instrument set from meter. Pass
// otel.Meter("coordination-kernel") for the global provider, or a meter
// from a MeterProvider built with NewMeterProvider for a dedicated
// reader/exporter pipeline.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	counter, err := meter.Int64Counter(
		"kernel.monitoring.triggers_total",
		metric.WithDescription("count of monitoring triggers fired, by kind"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{triggerCount: counter}, nil
}

// NewMeterProvider builds a minimal in-process MeterProvider with no
// exporter attached, for deployments that only want the Prometheus-style
// pull registry a reader would be attached to separately.
func NewMeterProvider() *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider()
}

// RecordTrigger increments the counter for kind. Safe to call with a nil
// Metrics (no-op), so ContractMonitor callers don't need a guard.
func (m *Metrics) RecordTrigger(ctx context.Context, kind TriggerKind) {
	if m == nil || m.triggerCount == nil {
		return
	}
	m.triggerCount.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
