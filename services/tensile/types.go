// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tensile

import (
	"github.com/go-playground/validator/v10"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/mechprops"
)

// DefaultDisplacementRateMMS is the crosshead rate assumed when a
// request omits one.
const DefaultDisplacementRateMMS = 2.0

// setupValidate is the shared validator instance for request types.
var setupValidate = validator.New()

// TestSetup describes the specimen and rig settings for one tensile test.
type TestSetup struct {
	// DiameterMM is the initial specimen diameter in millimeters. Required.
	DiameterMM float64 `json:"diameter_mm" form:"diameter_mm" validate:"required,gt=0"`

	// GaugeLengthMM is the initial gauge length in millimeters. Required.
	GaugeLengthMM float64 `json:"gauge_length_mm" form:"gauge_length_mm" validate:"required,gt=0"`

	// DisplacementRateMMS is the crosshead displacement rate in mm/s.
	// Recorded with the test but not consumed by the computation.
	// Default: 2
	DisplacementRateMMS float64 `json:"displacement_rate_mm_s" form:"displacement_rate_mm_s" validate:"omitempty,gt=0"`
}

// Validate validates the setup fields.
//
// # Outputs
//
//   - error: Non-nil if validation failed, with details about which field.
func (s *TestSetup) Validate() error {
	return setupValidate.Struct(s)
}

// EnsureDefaults populates default values for optional fields.
func (s *TestSetup) EnsureDefaults() {
	if s.DisplacementRateMMS == 0 {
		s.DisplacementRateMMS = DefaultDisplacementRateMMS
	}
}

// Geometry returns the specimen geometry for the computation.
func (s *TestSetup) Geometry() mechprops.Geometry {
	return mechprops.Geometry{
		DiameterMM:    s.DiameterMM,
		GaugeLengthMM: s.GaugeLengthMM,
	}
}

// AnalyzeRequest is the request body for POST /v1/tensile/analyze.
//
// Exactly one sample source must be present: the inline series or
// CSVContents.
type AnalyzeRequest struct {
	// Setup describes the specimen under test. Required.
	Setup TestSetup `json:"setup"`

	// LoadsKN is the inline Load_kN series in kilonewtons.
	LoadsKN []float64 `json:"loads_kn"`

	// DisplacementsMM is the inline Displacement_mm series, index-aligned
	// with LoadsKN.
	DisplacementsMM []float64 `json:"displacements_mm"`

	// CSVContents is a base64 data URI carrying a results CSV, the
	// payload format browser file inputs produce.
	CSVContents string `json:"csv_contents"`
}

// Series is one plottable coordinate series.
type Series struct {
	// X holds the abscissa values.
	X []float64 `json:"x"`

	// Y holds the ordinate values.
	Y []float64 `json:"y"`
}

// PropertySummary is the scalar portion of an analysis result.
type PropertySummary struct {
	// AreaMM2 is the initial cross-sectional area in mm².
	AreaMM2 float64 `json:"area_mm2"`

	// YoungsModulusMPa is the secant modulus at the yield point.
	YoungsModulusMPa float64 `json:"youngs_modulus_mpa"`

	// YieldStressMPa is the engineering stress at the yield point.
	YieldStressMPa float64 `json:"yield_stress_mpa"`

	// UltimateTensileStrengthMPa is the maximum engineering stress
	// observed anywhere on the curve.
	UltimateTensileStrengthMPa float64 `json:"ultimate_tensile_strength_mpa"`

	// FailureStrainPercent is the strain at maximum displacement, in percent.
	FailureStrainPercent float64 `json:"failure_strain_percent"`

	// YieldIndex is the sample index of the detected yield point.
	YieldIndex int `json:"yield_index"`
}

// PropertySummaryFrom converts computed properties to the API shape.
// Returns nil for nil input.
func PropertySummaryFrom(p *mechprops.Properties) *PropertySummary {
	if p == nil {
		return nil
	}
	return &PropertySummary{
		AreaMM2:                    p.AreaMM2,
		YoungsModulusMPa:           p.YoungsModulusMPa,
		YieldStressMPa:             p.YieldStressMPa,
		UltimateTensileStrengthMPa: p.UltimateTensileStrengthMPa,
		FailureStrainPercent:       p.FailureStrainPercent,
		YieldIndex:                 p.YieldIndex,
	}
}

// AnalyzeResponse is the response for the analyze endpoints.
type AnalyzeResponse struct {
	// RequestID echoes the X-Request-ID header for correlation.
	RequestID string `json:"request_id"`

	// Properties holds the derived mechanical properties.
	Properties *PropertySummary `json:"properties"`

	// StressStrain is the engineering stress/strain curve
	// (x: strain, y: stress in MPa).
	StressStrain Series `json:"stress_strain_data"`

	// LoadDisplacement is the raw measured series
	// (x: displacement in mm, y: load in kN).
	LoadDisplacement Series `json:"load_displacement_data"`

	// SampleCount is the number of data rows analyzed.
	SampleCount int `json:"sample_count"`
}

// HealthResponse is the response for GET /v1/tensile/health.
type HealthResponse struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/tensile/ready.
type ReadyResponse struct {
	// Ready is true if the service is ready to accept requests.
	Ready bool `json:"ready"`

	// AnalysesCompleted is the number of analyses served since start.
	AnalysesCompleted int64 `json:"analyses_completed"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
