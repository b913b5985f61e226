// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mechprops

import "errors"

// Sentinel errors for the mechprops package.
var (
	// ErrInvalidInput indicates empty or mismatched-length sample
	// sequences, or non-positive geometry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData indicates fewer than 2 samples fall inside the
	// presumed-linear prefix, so no line can be fitted.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoYieldDetected indicates the deviation never exceeded the
	// threshold anywhere on the curve, so no yield point exists.
	ErrNoYieldDetected = errors.New("no yield detected")

	// ErrNumericDegeneracy indicates a near-zero denominator made a
	// derived ratio ill-defined (e.g. zero strain at the yield point).
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// errKind maps a computation error to a short label for metrics and logs.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrNoYieldDetected):
		return "no_yield"
	case errors.Is(err, ErrNumericDegeneracy):
		return "numeric_degeneracy"
	default:
		return "unknown"
	}
}
