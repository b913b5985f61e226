// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ingest decodes uploaded tabular data into the two numeric
// columns the analyzer consumes.
//
// # Description
//
// The analyzer's computation core takes strongly-typed positional arrays
// and performs no parsing of its own. This package is the ingestion
// layer in front of it: it reads a CSV with (at least) the columns
// Load_kN and Displacement_mm, and decodes the base64 data URIs browser
// upload widgets produce.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxRows caps how many data rows a single dataset may carry. Uploads
// beyond this are rejected rather than buffered.
const MaxRows = 100000

// Required header columns. Matching is case-insensitive after
// whitespace trimming, so "load_kn" and " Load_kN " both qualify.
const (
	loadColumn         = "load_kn"
	displacementColumn = "displacement_mm"
)

// Dataset is the validated two-column table handed to the analyzer.
//
// Both slices are index-aligned and equal length; row order is
// measurement order.
type Dataset struct {
	// LoadsKN holds the Load_kN column in kilonewtons.
	LoadsKN []float64

	// DisplacementsMM holds the Displacement_mm column in millimeters.
	DisplacementsMM []float64
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.LoadsKN)
}

// ReadCSV parses a tensile-test CSV into a Dataset.
//
// # Description
//
// The first record is the header. It must contain the Load_kN and
// Displacement_mm columns (case-insensitive, trimmed); extra columns
// are ignored. Every following row must parse as floats in those two
// columns.
//
// # Inputs
//
//   - r: CSV source. Read to EOF; the caller owns closing it.
//
// # Outputs
//
//   - *Dataset: Both columns, one entry per data row.
//   - error: ErrEmptyDataset when no header or no data rows exist;
//     ErrMissingColumn when a required column is absent; ErrMalformedRow
//     on an unparseable row; ErrTooManyRows past the MaxRows cap.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}

	loadIdx, dispIdx := -1, -1
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case loadColumn:
			if loadIdx == -1 {
				loadIdx = i
			}
		case displacementColumn:
			if dispIdx == -1 {
				dispIdx = i
			}
		}
	}
	if loadIdx == -1 {
		return nil, fmt.Errorf("%w: Load_kN", ErrMissingColumn)
	}
	if dispIdx == -1 {
		return nil, fmt.Errorf("%w: Displacement_mm", ErrMissingColumn)
	}

	ds := &Dataset{}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row, err)
		}
		if row > MaxRows {
			return nil, fmt.Errorf("%w: more than %d data rows", ErrTooManyRows, MaxRows)
		}

		load, err := parseCell(record, loadIdx)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d, Load_kN: %v", ErrMalformedRow, row, err)
		}
		disp, err := parseCell(record, dispIdx)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d, Displacement_mm: %v", ErrMalformedRow, row, err)
		}

		ds.LoadsKN = append(ds.LoadsKN, load)
		ds.DisplacementsMM = append(ds.DisplacementsMM, disp)
		row++
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: header only, no data rows", ErrEmptyDataset)
	}
	return ds, nil
}

// parseCell extracts one float from a record.
func parseCell(record []string, idx int) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("column %d missing", idx)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
