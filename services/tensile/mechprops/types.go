// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mechprops derives mechanical properties from tensile-test data.
//
// # Description
//
// This package converts raw load/displacement samples into engineering
// stress/strain curves and locates the yield point via a
// deviation-from-linearity method. From the curve and the detected yield
// point it derives the standard scalar metrics: cross-sectional area,
// Young's modulus, yield stress, ultimate tensile strength, and failure
// strain.
//
// The pipeline is strictly sequential: raw samples -> curve -> linear fit
// over the leading elastic region -> first-deviation scan -> summary.
// Each stage is a pure function; Compute chains them.
//
// # Thread Safety
//
// All functions are pure and hold no shared state. Concurrent calls with
// independent inputs are safe.
package mechprops

import (
	"fmt"
	"math"
)

// Geometry describes the undeformed specimen.
//
// Both fields must be strictly positive. The cross-section is assumed
// circular, so DiameterMM fully determines the initial area.
type Geometry struct {
	// DiameterMM is the initial specimen diameter in millimeters.
	DiameterMM float64 `json:"diameter_mm"`

	// GaugeLengthMM is the initial gauge length in millimeters.
	GaugeLengthMM float64 `json:"gauge_length_mm"`
}

// Area returns the initial cross-sectional area in mm².
func (g Geometry) Area() float64 {
	r := g.DiameterMM / 2
	return math.Pi * r * r
}

// Validate checks that the geometry can describe a specimen.
func (g Geometry) Validate() error {
	if g.DiameterMM <= 0 {
		return fmt.Errorf("%w: diameter %v mm must be positive", ErrInvalidInput, g.DiameterMM)
	}
	if g.GaugeLengthMM <= 0 {
		return fmt.Errorf("%w: gauge length %v mm must be positive", ErrInvalidInput, g.GaugeLengthMM)
	}
	return nil
}

// Curve holds the engineering stress/strain series.
//
// Both slices are index-aligned with the raw samples they were built
// from: len(Stress) == len(Strain) == number of input samples.
type Curve struct {
	// Stress is engineering stress in MPa, one value per sample.
	Stress []float64 `json:"stress_mpa"`

	// Strain is engineering strain (unitless), one value per sample.
	Strain []float64 `json:"strain"`
}

// Len returns the number of samples in the curve.
func (c Curve) Len() int {
	return len(c.Stress)
}

// LinearFit is the least-squares line fitted over the leading
// (presumed-elastic) portion of a curve: stress ~= Slope*strain + Intercept.
type LinearFit struct {
	// Slope is the fitted elastic slope in MPa per unit strain.
	Slope float64 `json:"slope"`

	// Intercept is the fitted stress offset in MPa.
	Intercept float64 `json:"intercept"`
}

// Predict returns the stress the fitted line predicts for a strain value.
func (f LinearFit) Predict(strain float64) float64 {
	return f.Slope*strain + f.Intercept
}

// Properties is the immutable result of a mechanical-properties analysis.
//
// The embedded Curve carries the full stress/strain series so downstream
// consumers (reporting, rendering) need no second computation. Properties
// is created fresh per call and owned solely by the caller.
type Properties struct {
	// AreaMM2 is the initial cross-sectional area in mm².
	AreaMM2 float64 `json:"area_mm2"`

	// YoungsModulusMPa is the secant modulus at the detected yield point:
	// stress/strain at YieldIndex. This is deliberately not the fitted
	// elastic slope; see SummarizeProperties.
	YoungsModulusMPa float64 `json:"youngs_modulus_mpa"`

	// YieldStressMPa is the engineering stress at the detected yield point.
	YieldStressMPa float64 `json:"yield_stress_mpa"`

	// UltimateTensileStrengthMPa is the maximum engineering stress
	// observed anywhere on the curve.
	UltimateTensileStrengthMPa float64 `json:"ultimate_tensile_strength_mpa"`

	// FailureStrainPercent is max(displacement)/gaugeLength * 100.
	// It uses the displacement maximum, not the last sample.
	FailureStrainPercent float64 `json:"failure_strain_percent"`

	// YieldIndex is the curve index of the detected yield point.
	YieldIndex int `json:"yield_index"`

	// Curve is the full stress/strain series the metrics were derived from.
	Curve Curve `json:"curve"`
}

// Options tunes the analysis thresholds.
//
// The defaults reproduce the reference behavior. Both thresholds are
// heuristics, not measured material constants, so callers with unusual
// specimens may adjust them.
type Options struct {
	// LinearFraction is the fraction of leading samples fitted as the
	// presumed-elastic region (default: 0.1).
	//
	// The sample count is truncated toward zero, so at the default a
	// dataset needs at least 20 samples before a 2-point fit is possible.
	LinearFraction float64

	// DeviationThreshold is the relative deviation above which a sample
	// counts as departed from the elastic line (default: 0.05).
	DeviationThreshold float64
}

// DefaultOptions returns the reference thresholds.
func DefaultOptions() Options {
	return Options{
		LinearFraction:     DefaultLinearFraction,
		DeviationThreshold: DefaultDeviationThreshold,
	}
}

const (
	// DefaultLinearFraction is the leading fraction of samples assumed
	// to lie in the linear-elastic regime.
	DefaultLinearFraction = 0.1

	// DefaultDeviationThreshold is the relative deviation (5%) marking
	// departure from elastic behavior.
	DefaultDeviationThreshold = 0.05

	// stressEpsilon guards the deviation ratio against division by zero
	// for near-zero stress samples at the origin.
	stressEpsilon = 1e-6

	// degeneracyEpsilon bounds denominators below which a ratio is
	// considered numerically meaningless rather than merely small.
	degeneracyEpsilon = 1e-12
)
