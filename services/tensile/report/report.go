// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report renders analysis results as a plain-text block.
//
// The block keeps the established display precision: area to three
// decimals, stresses and moduli to two, failure strain to two. It is
// consumed by the CLI and by watch mode; rendering plots is out of
// scope for this system.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/mechprops"
)

// Render returns the results block for a completed analysis.
//
// # Description
//
// Produces the five-line summary in display order: area, Young's
// modulus, yield stress, ultimate tensile strength, failure strain.
// A nil input renders as an empty string.
//
// # Inputs
//
//   - props: Completed analysis result.
//
// # Outputs
//
//   - string: Newline-terminated results block.
func Render(props *mechprops.Properties) string {
	if props == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Results:\n")
	fmt.Fprintf(&sb, "Initial Cross-Sectional Area: %.3f mm²\n", props.AreaMM2)
	fmt.Fprintf(&sb, "Young's Modulus: %.2f MPa\n", props.YoungsModulusMPa)
	fmt.Fprintf(&sb, "Yield Stress: %.2f MPa\n", props.YieldStressMPa)
	fmt.Fprintf(&sb, "Ultimate Tensile Strength: %.2f MPa\n", props.UltimateTensileStrengthMPa)
	fmt.Fprintf(&sb, "Failure Strain: %.2f%%\n", props.FailureStrainPercent)
	return sb.String()
}

// Fprint writes the results block to w.
func Fprint(w io.Writer, props *mechprops.Properties) error {
	_, err := io.WriteString(w, Render(props))
	return err
}
