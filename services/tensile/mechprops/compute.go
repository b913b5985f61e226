// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mechprops

import (
	"context"
	"fmt"
	"math"
	"time"
)

// BuildCurve converts raw samples into an engineering stress/strain curve.
//
// # Description
//
// Loads arrive in kilonewtons and are converted to newtons. Stress is
// computed against the initial cross-sectional area A0 = pi*(d/2)^2 and
// strain against the initial gauge length. Both use the undeformed
// geometry throughout (engineering stress/strain, not true stress).
//
// # Inputs
//
//   - loadsKN: Ordered load samples in kN. Order is test time.
//   - displacementsMM: Displacement samples in mm, index-aligned with loads.
//   - geo: Specimen geometry; both fields strictly positive.
//
// # Outputs
//
//   - Curve: Stress (MPa) and strain series, same length as the inputs.
//   - error: ErrInvalidInput on empty/mismatched inputs or bad geometry.
func BuildCurve(loadsKN, displacementsMM []float64, geo Geometry) (Curve, error) {
	if len(loadsKN) == 0 || len(displacementsMM) == 0 {
		return Curve{}, fmt.Errorf("%w: empty sample sequence", ErrInvalidInput)
	}
	if len(loadsKN) != len(displacementsMM) {
		return Curve{}, fmt.Errorf("%w: %d loads vs %d displacements",
			ErrInvalidInput, len(loadsKN), len(displacementsMM))
	}
	if err := geo.Validate(); err != nil {
		return Curve{}, err
	}

	area := geo.Area()
	stress := make([]float64, len(loadsKN))
	strain := make([]float64, len(displacementsMM))
	for i := range loadsKN {
		// kN -> N; N/mm² is MPa.
		stress[i] = loadsKN[i] * 1000 / area
		strain[i] = displacementsMM[i] / geo.GaugeLengthMM
	}

	return Curve{Stress: stress, Strain: strain}, nil
}

// FitLinearRegion fits an ordinary least-squares line over the leading
// samples of the curve.
//
// # Description
//
// The first k = floor(fraction*n) samples are presumed to lie in the
// linear-elastic regime and are fitted with an unweighted least-squares
// line stress ~= slope*strain + intercept. The prefix is a heuristic,
// not a measured elastic limit: the earliest samples of a tensile test
// are assumed elastic.
//
// The truncation toward zero is deliberate. At the default fraction a
// curve needs n >= 20 before k reaches 2; shorter datasets fail rather
// than being silently rounded up.
//
// # Inputs
//
//   - c: Full stress/strain curve.
//   - fraction: Leading fraction to fit, in (0, 1].
//
// # Outputs
//
//   - LinearFit: Fitted slope and intercept.
//   - error: ErrInsufficientData when k < 2; ErrNumericDegeneracy when
//     the prefix strains have no variance; ErrInvalidInput on a bad
//     fraction or malformed curve.
func FitLinearRegion(c Curve, fraction float64) (LinearFit, error) {
	if c.Len() == 0 || len(c.Stress) != len(c.Strain) {
		return LinearFit{}, fmt.Errorf("%w: malformed curve", ErrInvalidInput)
	}
	if fraction <= 0 || fraction > 1 {
		return LinearFit{}, fmt.Errorf("%w: linear fraction %v outside (0, 1]",
			ErrInvalidInput, fraction)
	}

	k := int(fraction * float64(c.Len()))
	if k < 2 {
		return LinearFit{}, fmt.Errorf("%w: %d samples in linear prefix, need at least 2",
			ErrInsufficientData, k)
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < k; i++ {
		x, y := c.Strain[i], c.Stress[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	n := float64(k)
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < degeneracyEpsilon {
		return LinearFit{}, fmt.Errorf("%w: zero strain variance in linear prefix",
			ErrNumericDegeneracy)
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	return LinearFit{Slope: slope, Intercept: intercept}, nil
}

// DetectYield scans the curve for the first departure from the fitted line.
//
// # Description
//
// For every sample the relative deviation
//
//	|stress[i] - predicted[i]| / (stress[i] + 1e-6)
//
// is compared against the threshold; the first index to exceed it is the
// yield point. The 1e-6 guard keeps the ratio defined for the near-zero
// stresses at the origin. Scanning runs from the start of the curve,
// i.e. earliest in test time, so the result is the earliest departure.
//
// # Inputs
//
//   - c: Full stress/strain curve.
//   - fit: Line fitted over the elastic prefix.
//   - threshold: Relative deviation marking yield, > 0.
//
// # Outputs
//
//   - int: Index of the first sample whose deviation exceeds the threshold.
//   - error: ErrNoYieldDetected when no sample exceeds the threshold (a
//     real possibility for perfectly linear data); ErrInvalidInput on an
//     empty curve or non-positive threshold.
func DetectYield(c Curve, fit LinearFit, threshold float64) (int, error) {
	if c.Len() == 0 || len(c.Stress) != len(c.Strain) {
		return 0, fmt.Errorf("%w: malformed curve", ErrInvalidInput)
	}
	if threshold <= 0 {
		return 0, fmt.Errorf("%w: deviation threshold %v must be positive",
			ErrInvalidInput, threshold)
	}

	for i := 0; i < c.Len(); i++ {
		predicted := fit.Predict(c.Strain[i])
		deviation := math.Abs(c.Stress[i]-predicted) / (c.Stress[i] + stressEpsilon)
		if deviation > threshold {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: deviation never exceeded %v over %d samples",
		ErrNoYieldDetected, threshold, c.Len())
}

// SummarizeProperties derives the scalar metrics from the curve and the
// detected yield point.
//
// # Description
//
// Young's modulus is the secant modulus at the yield point,
// stress[yieldIndex]/strain[yieldIndex], deliberately not the fitted
// elastic slope: the two differ whenever the intercept is nonzero, and
// swapping in the slope changes output values. Callers that want the
// fitted slope have it from FitLinearRegion.
//
// Ultimate tensile strength is the stress maximum over the whole curve.
// Failure strain uses the displacement maximum, not the final sample, so
// specimens whose recorded displacement backs off after fracture are
// still summarized from their true extension.
//
// # Inputs
//
//   - c: Full stress/strain curve.
//   - yieldIndex: Index of the detected yield point, in [0, c.Len()).
//   - displacementsMM: Raw displacement samples the curve was built from.
//   - geo: Specimen geometry.
//
// # Outputs
//
//   - *Properties: Scalar metrics plus the embedded curve.
//   - error: ErrInvalidInput on range/length violations;
//     ErrNumericDegeneracy when strain at the yield point is too close
//     to zero for a meaningful modulus.
func SummarizeProperties(c Curve, yieldIndex int, displacementsMM []float64, geo Geometry) (*Properties, error) {
	if c.Len() == 0 || len(c.Stress) != len(c.Strain) {
		return nil, fmt.Errorf("%w: malformed curve", ErrInvalidInput)
	}
	if yieldIndex < 0 || yieldIndex >= c.Len() {
		return nil, fmt.Errorf("%w: yield index %d outside curve of %d samples",
			ErrInvalidInput, yieldIndex, c.Len())
	}
	if len(displacementsMM) != c.Len() {
		return nil, fmt.Errorf("%w: %d displacements vs %d curve samples",
			ErrInvalidInput, len(displacementsMM), c.Len())
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	strainAtYield := c.Strain[yieldIndex]
	if math.Abs(strainAtYield) < degeneracyEpsilon {
		return nil, fmt.Errorf("%w: strain %v at yield index %d",
			ErrNumericDegeneracy, strainAtYield, yieldIndex)
	}

	ultimate := c.Stress[0]
	for _, s := range c.Stress[1:] {
		if s > ultimate {
			ultimate = s
		}
	}

	maxDisplacement := displacementsMM[0]
	for _, d := range displacementsMM[1:] {
		if d > maxDisplacement {
			maxDisplacement = d
		}
	}

	return &Properties{
		AreaMM2:                    geo.Area(),
		YoungsModulusMPa:           c.Stress[yieldIndex] / strainAtYield,
		YieldStressMPa:             c.Stress[yieldIndex],
		UltimateTensileStrengthMPa: ultimate,
		FailureStrainPercent:       maxDisplacement / geo.GaugeLengthMM * 100,
		YieldIndex:                 yieldIndex,
		Curve:                      c,
	}, nil
}

// Compute runs the full analysis pipeline on raw samples.
//
// # Description
//
// Chains BuildCurve, FitLinearRegion, DetectYield, and
// SummarizeProperties in order, failing fast at the first stage whose
// precondition is violated. The computation is deterministic and pure:
// identical inputs produce identical results, and no state survives the
// call.
//
// # Inputs
//
//   - ctx: Context for tracing. Must be non-nil; the computation itself
//     has no suspension points and does not observe cancellation.
//   - loadsKN: Ordered load samples in kN.
//   - displacementsMM: Displacement samples in mm, index-aligned.
//   - geo: Specimen geometry.
//   - opts: Optional thresholds; nil selects DefaultOptions.
//
// # Outputs
//
//   - *Properties: Scalar metrics plus the full curve.
//   - error: First stage error; see the sentinel errors in this package.
//
// # Example
//
//	props, err := mechprops.Compute(ctx, loads, disps, mechprops.Geometry{
//	    DiameterMM:    6,
//	    GaugeLengthMM: 32.2,
//	}, nil)
func Compute(ctx context.Context, loadsKN, displacementsMM []float64, geo Geometry, opts *Options) (*Properties, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidInput)
	}
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	ctx, span := startComputeSpan(ctx, len(loadsKN))
	defer span.End()
	start := time.Now()

	props, err := computePipeline(loadsKN, displacementsMM, geo, *opts)
	if err != nil {
		setComputeSpanResult(span, -1, false)
		recordComputeMetrics(ctx, time.Since(start), len(loadsKN), false)
		recordComputeError(ctx, errKind(err))
		return nil, err
	}

	setComputeSpanResult(span, props.YieldIndex, true)
	recordComputeMetrics(ctx, time.Since(start), len(loadsKN), true)
	return props, nil
}

// computePipeline is the untraced stage chain.
func computePipeline(loadsKN, displacementsMM []float64, geo Geometry, opts Options) (*Properties, error) {
	curve, err := BuildCurve(loadsKN, displacementsMM, geo)
	if err != nil {
		return nil, err
	}

	fit, err := FitLinearRegion(curve, opts.LinearFraction)
	if err != nil {
		return nil, err
	}

	yieldIndex, err := DetectYield(curve, fit, opts.DeviationThreshold)
	if err != nil {
		return nil, err
	}

	return SummarizeProperties(curve, yieldIndex, displacementsMM, geo)
}
