package worker

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/aoi/internal/worker"

type metrics struct {
	operations  metric.Int64Counter
	transitions metric.Int64Counter
	duration    metric.Float64Histogram
	population  metric.Int64UpDownCounter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	out.operations, err = m.Int64Counter(
		"aoi.operations",
		metric.WithDescription("Scene operations applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operations counter: %w", err)
	}

	out.transitions, err = m.Int64Counter(
		"aoi.transitions",
		metric.WithDescription("Directed visibility changes reported"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	out.duration, err = m.Float64Histogram(
		"aoi.operation.duration",
		metric.WithDescription("Time spent inside the scene per operation"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	out.population, err = m.Int64UpDownCounter(
		"aoi.population",
		metric.WithDescription("Entities currently in the scene"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating population counter: %w", err)
	}

	return out, nil
}
