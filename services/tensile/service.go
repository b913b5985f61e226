// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tensile provides the HTTP service for tensile-test analysis.
//
// The service exposes endpoints for:
//   - Analyzing measured load/displacement series into mechanical properties
//   - Uploading raw results CSV files
//   - Health and readiness checks
package tensile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/ingest"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/mechprops"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/telemetry"
)

// ServiceConfig configures the tensile analysis service.
type ServiceConfig struct {
	// DeviationThreshold is the relative departure from the elastic fit
	// that marks the yield point. Zero selects the package default.
	// Default: 0.05
	DeviationThreshold float64

	// LinearFraction is the leading fraction of samples fitted as the
	// elastic region. Zero selects the package default.
	// Default: 0.1
	LinearFraction float64

	// MaxSamples is the largest dataset the service accepts. Zero
	// disables the cap.
	// Default: 100000
	MaxSamples int

	// MaxUploadBytes is the largest file accepted on the upload
	// endpoint. Zero disables the cap.
	// Default: 10MB
	MaxUploadBytes int64
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DeviationThreshold: mechprops.DefaultDeviationThreshold,
		LinearFraction:     mechprops.DefaultLinearFraction,
		MaxSamples:         ingest.MaxRows,
		MaxUploadBytes:     10 * 1024 * 1024, // 10MB
	}
}

// Service runs tensile-test analyses.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Each analysis owns its inputs
//	and result; the only shared state is the completed-analysis count.
type Service struct {
	config   ServiceConfig
	metrics  *telemetry.Metrics
	analyses atomic.Int64
}

// NewService creates a new tensile analysis service.
//
// Description:
//
//	Creates a service with the given configuration. The service is
//	stateless apart from counters and is ready immediately.
//
// Inputs:
//
//	config - Service configuration
//
// Outputs:
//
//	*Service - The configured service
func NewService(config ServiceConfig) *Service {
	return &Service{config: config}
}

// SetMetrics wires the service-level telemetry instruments.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// AnalysesCompleted reports how many analyses finished successfully
// since the service started.
func (s *Service) AnalysesCompleted() int64 {
	return s.analyses.Load()
}

// AnalysisResult is the outcome of one analysis run.
type AnalysisResult struct {
	// Properties holds the derived metrics and the full curve.
	Properties *mechprops.Properties

	// Setup echoes the setup the analysis used, defaults applied.
	Setup TestSetup

	// SampleCount is the number of data rows analyzed.
	SampleCount int
}

// Analyze derives mechanical properties from a measured dataset.
//
// Description:
//
//	Validates the setup, bounds the dataset against the configured cap,
//	and runs the stress/strain computation with the service thresholds.
//	The displacement rate is recorded for the test log only; the
//	computation does not consume it.
//
// Inputs:
//
//	ctx - Context for tracing
//	ds - Measured load/displacement series
//	setup - Specimen geometry and rig settings
//
// Outputs:
//
//	*AnalysisResult - Derived properties plus the echoed setup
//	error - Non-nil if validation or the computation fails
//
// Errors:
//
//	ErrNoSamples - ds is nil or empty
//	ErrTooManySamples - ds exceeds MaxSamples
//	ErrInvalidSetup - setup fails validation
//	mechprops sentinels - the computation cannot derive properties
func (s *Service) Analyze(ctx context.Context, ds *ingest.Dataset, setup TestSetup) (*AnalysisResult, error) {
	start := time.Now()

	result, err := s.analyze(ctx, ds, setup)

	samples := 0
	if ds != nil {
		samples = ds.Len()
	}
	s.recordAnalysis(ctx, time.Since(start), samples, err)
	return result, err
}

// analyze is the uninstrumented analysis path.
func (s *Service) analyze(ctx context.Context, ds *ingest.Dataset, setup TestSetup) (*AnalysisResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrNoSamples)
	}
	if s.config.MaxSamples > 0 && ds.Len() > s.config.MaxSamples {
		return nil, fmt.Errorf("%w: %d samples (limit %d)",
			ErrTooManySamples, ds.Len(), s.config.MaxSamples)
	}

	setup.EnsureDefaults()
	if err := setup.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}
	slog.Debug("Displacement rate recorded but unused by the computation",
		"displacement_rate_mm_s", setup.DisplacementRateMMS)

	opts := mechprops.DefaultOptions()
	if s.config.LinearFraction > 0 {
		opts.LinearFraction = s.config.LinearFraction
	}
	if s.config.DeviationThreshold > 0 {
		opts.DeviationThreshold = s.config.DeviationThreshold
	}

	props, err := mechprops.Compute(ctx, ds.LoadsKN, ds.DisplacementsMM, setup.Geometry(), &opts)
	if err != nil {
		return nil, err
	}

	s.analyses.Add(1)
	return &AnalysisResult{
		Properties:  props,
		Setup:       setup,
		SampleCount: ds.Len(),
	}, nil
}

// recordAnalysis feeds the service-level instruments, if wired.
func (s *Service) recordAnalysis(ctx context.Context, d time.Duration, samples int, err error) {
	if s.metrics == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	s.metrics.AnalysesTotal.Add(ctx, 1, attrs)
	s.metrics.AnalysisDuration.Record(ctx, d.Seconds(), attrs)
	s.metrics.DatasetSamples.Record(ctx, float64(samples))

	if err != nil {
		_, code := analysisErrorStatus(err)
		s.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", strings.ToLower(code)),
			attribute.String("component", "service"),
		))
	}
}
