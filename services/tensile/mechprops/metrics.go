// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mechprops

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for property computations.
var (
	tracer = otel.Tracer("tensile.mechprops")
	meter  = otel.Meter("tensile.mechprops")
)

// Metrics for property computations.
var (
	computeLatency metric.Float64Histogram
	computeTotal   metric.Int64Counter
	curveSamples   metric.Int64Histogram
	computeErrors  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		computeLatency, err = meter.Float64Histogram(
			"mechprops_compute_duration_seconds",
			metric.WithDescription("Duration of mechanical-property computations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		computeTotal, err = meter.Int64Counter(
			"mechprops_compute_total",
			metric.WithDescription("Total number of mechanical-property computations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		curveSamples, err = meter.Int64Histogram(
			"mechprops_curve_samples",
			metric.WithDescription("Number of samples per analyzed curve"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		computeErrors, err = meter.Int64Counter(
			"mechprops_compute_errors_total",
			metric.WithDescription("Total failed computations by error kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startComputeSpan creates a span for a property computation.
func startComputeSpan(ctx context.Context, samples int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "mechprops.Compute",
		trace.WithAttributes(
			attribute.Int("mechprops.samples", samples),
		),
	)
}

// setComputeSpanResult sets the result attributes on a computation span.
func setComputeSpanResult(span trace.Span, yieldIndex int, success bool) {
	span.SetAttributes(
		attribute.Int("mechprops.yield_index", yieldIndex),
		attribute.Bool("mechprops.success", success),
	)
}

// recordComputeMetrics records metrics for a property computation.
func recordComputeMetrics(ctx context.Context, duration time.Duration, samples int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
	)

	computeLatency.Record(ctx, duration.Seconds(), attrs)
	computeTotal.Add(ctx, 1, attrs)
	curveSamples.Record(ctx, int64(samples))
}

// recordComputeError records a failed computation by error kind.
func recordComputeError(ctx context.Context, kind string) {
	if err := initMetrics(); err != nil {
		return
	}
	computeErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
