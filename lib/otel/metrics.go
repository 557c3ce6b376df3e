package otel

import (
	"go.opentelemetry.io/otel/metric"
)

// LoadMetrics holds metrics for the load driver.
type LoadMetrics struct {
	OpsTotal      metric.Int64Counter
	OpFailures    metric.Int64Counter
	OpDuration    metric.Float64Histogram
	WorkersActive metric.Int64UpDownCounter
}

// NewLoadMetrics creates metrics for the load driver.
func NewLoadMetrics(meter metric.Meter) (*LoadMetrics, error) {
	opsTotal, err := meter.Int64Counter(
		"regload_ops_total",
		metric.WithDescription("Total number of attempted load operations"),
	)
	if err != nil {
		return nil, err
	}

	opFailures, err := meter.Int64Counter(
		"regload_op_failures_total",
		metric.WithDescription("Total number of failed load operations"),
	)
	if err != nil {
		return nil, err
	}

	opDuration, err := meter.Float64Histogram(
		"regload_op_duration_seconds",
		metric.WithDescription("Duration of one load operation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	workersActive, err := meter.Int64UpDownCounter(
		"regload_workers_active",
		metric.WithDescription("Number of currently running workers"),
	)
	if err != nil {
		return nil, err
	}

	return &LoadMetrics{
		OpsTotal:      opsTotal,
		OpFailures:    opFailures,
		OpDuration:    opDuration,
		WorkersActive: workersActive,
	}, nil
}
