// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNewMetrics(t *testing.T) {
	meter := otel.Meter("test_metrics_create")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	// Verify all metrics are created
	if metrics.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if metrics.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration is nil")
	}
	if metrics.HTTPActiveRequests == nil {
		t.Error("HTTPActiveRequests is nil")
	}
	if metrics.AnalysesTotal == nil {
		t.Error("AnalysesTotal is nil")
	}
	if metrics.AnalysisDuration == nil {
		t.Error("AnalysisDuration is nil")
	}
	if metrics.DatasetSamples == nil {
		t.Error("DatasetSamples is nil")
	}
	if metrics.ErrorsTotal == nil {
		t.Error("ErrorsTotal is nil")
	}
}

func TestMetrics_RecordHTTPMetrics(t *testing.T) {
	meter := otel.Meter("test_http_metrics")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("method", "POST"),
		attribute.String("path", "/v1/tensile/analyze"),
		attribute.Int("status", 200),
	)

	// Should not panic
	metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	metrics.HTTPRequestDuration.Record(ctx, 0.123, attrs)
	metrics.HTTPActiveRequests.Add(ctx, 1)
	metrics.HTTPActiveRequests.Add(ctx, -1)
}

func TestMetrics_RecordAnalysisMetrics(t *testing.T) {
	meter := otel.Meter("test_analysis_metrics")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()

	metrics.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", "success"),
	))
	metrics.AnalysisDuration.Record(ctx, 0.012, metric.WithAttributes(
		attribute.String("status", "success"),
	))
	metrics.DatasetSamples.Record(ctx, 100)
}

func TestMetrics_RecordErrors(t *testing.T) {
	meter := otel.Meter("test_errors")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()

	metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", "invalid_input"),
		attribute.String("component", "ingest"),
	))
}
