// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestReadCSV_Valid(t *testing.T) {
	in := "Load_kN,Displacement_mm\n0,0\n1.5,0.1\n3,0.2\n"

	ds, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
	if ds.LoadsKN[1] != 1.5 {
		t.Errorf("LoadsKN[1] = %v, want 1.5", ds.LoadsKN[1])
	}
	if ds.DisplacementsMM[2] != 0.2 {
		t.Errorf("DisplacementsMM[2] = %v, want 0.2", ds.DisplacementsMM[2])
	}
}

func TestReadCSV_HeaderMatching(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"exact", "Load_kN,Displacement_mm"},
		{"lowercase", "load_kn,displacement_mm"},
		{"uppercase", "LOAD_KN,DISPLACEMENT_MM"},
		{"padded", " Load_kN , Displacement_mm "},
		{"reordered", "Displacement_mm,Load_kN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in string
			if strings.HasPrefix(strings.TrimSpace(tt.header), "Displacement") {
				in = tt.header + "\n0.1,5\n"
			} else {
				in = tt.header + "\n5,0.1\n"
			}

			ds, err := ReadCSV(strings.NewReader(in))
			if err != nil {
				t.Fatalf("ReadCSV() error: %v", err)
			}
			if ds.LoadsKN[0] != 5 || ds.DisplacementsMM[0] != 0.1 {
				t.Errorf("columns misassigned: loads=%v disps=%v",
					ds.LoadsKN, ds.DisplacementsMM)
			}
		})
	}
}

func TestReadCSV_ExtraColumnsIgnored(t *testing.T) {
	in := "Time_s,Load_kN,Temperature_C,Displacement_mm\n0,1,23,0.1\n1,2,24,0.2\n"

	ds, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	if ds.LoadsKN[0] != 1 || ds.DisplacementsMM[0] != 0.1 {
		t.Errorf("wrong columns picked: loads=%v disps=%v", ds.LoadsKN, ds.DisplacementsMM)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no load", "Displacement_mm\n0.1\n"},
		{"no displacement", "Load_kN\n1\n"},
		{"neither", "Force,Extension\n1,0.1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			if !errors.Is(err, ErrMissingColumn) {
				t.Errorf("ReadCSV() error = %v, want ErrMissingColumn", err)
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	t.Run("no bytes", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("ReadCSV() error = %v, want ErrEmptyDataset", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("Load_kN,Displacement_mm\n"))
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("ReadCSV() error = %v, want ErrEmptyDataset", err)
		}
	})
}

func TestReadCSV_MalformedRow(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"non-numeric load", "Load_kN,Displacement_mm\nabc,0.1\n"},
		{"non-numeric displacement", "Load_kN,Displacement_mm\n1,xyz\n"},
		{"short row", "Load_kN,Displacement_mm\n1\n"},
		{"blank cell", "Load_kN,Displacement_mm\n1,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			if !errors.Is(err, ErrMalformedRow) {
				t.Errorf("ReadCSV() error = %v, want ErrMalformedRow", err)
			}
		})
	}
}

func TestReadCSV_RowCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Load_kN,Displacement_mm\n")
	for i := 0; i <= MaxRows; i++ {
		sb.WriteString("1,0.1\n")
	}

	_, err := ReadCSV(strings.NewReader(sb.String()))
	if !errors.Is(err, ErrTooManyRows) {
		t.Errorf("ReadCSV() error = %v, want ErrTooManyRows", err)
	}
}

func TestReadCSV_ExactlyAtCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Load_kN,Displacement_mm\n")
	for i := 0; i < MaxRows; i++ {
		sb.WriteString("1,0.1\n")
	}

	ds, err := ReadCSV(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if ds.Len() != MaxRows {
		t.Errorf("Len() = %d, want %d", ds.Len(), MaxRows)
	}
}

func TestDataset_Len(t *testing.T) {
	ds := &Dataset{}
	if ds.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ds.Len())
	}

	ds = &Dataset{LoadsKN: []float64{1, 2}, DisplacementsMM: []float64{0.1, 0.2}}
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
}
