// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package watch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/ingest"
)

func testSetup() tensile.TestSetup {
	return tensile.TestSetup{DiameterMM: 6, GaugeLengthMM: 32.2}
}

// bilinearRows renders data rows [from, to) of a stress/strain curve
// that is linear with slope 200 MPa/strain for the first 50 samples and
// continues with a shallower slope after. With the default thresholds
// and the test specimen, the full 100-row curve yields at index 53.
func bilinearRows(from, to int) string {
	area := math.Pi * 9 // 6 mm diameter
	var sb strings.Builder
	for i := from; i < to; i++ {
		strain := 0.001 * float64(i)
		var stress float64
		if i < 50 {
			stress = 200 * strain
		} else {
			stress = 7.35 + 0.05*float64(i)
		}
		fmt.Fprintf(&sb, "%g,%g\n", stress*area/1000, strain*32.2)
	}
	return sb.String()
}

func bilinearCSV() string {
	return "Load_kN,Displacement_mm\n" + bilinearRows(0, 100)
}

// newTestWatcher builds a watcher with a short debounce that feeds
// results into the returned channel.
func newTestWatcher(t *testing.T, dir string, debounce time.Duration) (*Watcher, chan Result) {
	t.Helper()

	results := make(chan Result, 16)
	opts := &Options{DebounceWindow: debounce, BufferSize: 64}
	w, err := New(dir, tensile.NewService(tensile.DefaultServiceConfig()), testSetup(),
		func(res Result) { results <- res }, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w, results
}

func waitForResult(t *testing.T, results chan Result) Result {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a result")
		return Result{}
	}
}

func assertNoResult(t *testing.T, results chan Result, window time.Duration) {
	t.Helper()
	select {
	case res := <-results:
		t.Fatalf("unexpected result for %s", res.Path)
	case <-time.After(window):
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func appendFile(t *testing.T, path, contents string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("failed to open %s for append: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(contents); err != nil {
		t.Fatalf("failed to append to %s: %v", path, err)
	}
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNew_NilService(t *testing.T) {
	_, err := New(t.TempDir(), nil, testSetup(), nil, nil)
	if !errors.Is(err, ErrNilService) {
		t.Errorf("expected ErrNilService, got %v", err)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	svc := tensile.NewService(tensile.DefaultServiceConfig())
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"), svc, testSetup(), nil, nil)
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestNew_RootIsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	writeFile(t, path, bilinearCSV())

	svc := tensile.NewService(tensile.DefaultServiceConfig())
	_, err := New(path, svc, testSetup(), nil, nil)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestNew_InvalidSetup(t *testing.T) {
	svc := tensile.NewService(tensile.DefaultServiceConfig())
	_, err := New(t.TempDir(), svc, tensile.TestSetup{}, nil, nil)
	if !errors.Is(err, tensile.ErrInvalidSetup) {
		t.Errorf("expected ErrInvalidSetup, got %v", err)
	}
}

// =============================================================================
// Watching Tests
// =============================================================================

func TestWatcher_AnalyzesNewFile(t *testing.T) {
	dir := t.TempDir()
	w, results := newTestWatcher(t, dir, 50*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	path := filepath.Join(dir, "specimen_a.csv")
	writeFile(t, path, bilinearCSV())

	res := waitForResult(t, results)
	if res.Err != nil {
		t.Fatalf("expected successful analysis, got %v", res.Err)
	}
	if res.Path != path {
		t.Errorf("expected path %s, got %s", path, res.Path)
	}
	if res.Analysis == nil || res.Analysis.SampleCount != 100 {
		t.Fatalf("unexpected analysis: %+v", res.Analysis)
	}
	if res.Analysis.Properties.YieldIndex != 53 {
		t.Errorf("expected yield index 53, got %d", res.Analysis.Properties.YieldIndex)
	}
}

func TestWatcher_ReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	w, results := newTestWatcher(t, dir, 50*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "broken.csv"), "Load_kN,Displacement_mm\n1,not-a-number\n")

	res := waitForResult(t, results)
	if !errors.Is(res.Err, ingest.ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow, got %v", res.Err)
	}
	if res.Analysis != nil {
		t.Errorf("expected no analysis for a bad file, got %+v", res.Analysis)
	}
}

func TestWatcher_IgnoresNonCSV(t *testing.T) {
	dir := t.TempDir()
	w, results := newTestWatcher(t, dir, 50*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "notes.txt"), "calibration pending")
	writeFile(t, filepath.Join(dir, ".hidden.csv"), bilinearCSV())
	assertNoResult(t, results, 300*time.Millisecond)

	path := filepath.Join(dir, "specimen_b.csv")
	writeFile(t, path, bilinearCSV())

	res := waitForResult(t, results)
	if res.Path != path {
		t.Errorf("expected result for %s, got %s", path, res.Path)
	}
}

func TestWatcher_CoalescesIncrementalWrites(t *testing.T) {
	dir := t.TempDir()
	// Wide window so all three writes land in one batch.
	w, results := newTestWatcher(t, dir, 250*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Stream the file the way a rig does: header and rows in chunks.
	path := filepath.Join(dir, "streamed.csv")
	writeFile(t, path, "Load_kN,Displacement_mm\n"+bilinearRows(0, 60))
	time.Sleep(5 * time.Millisecond)
	appendFile(t, path, bilinearRows(60, 80))
	time.Sleep(5 * time.Millisecond)
	appendFile(t, path, bilinearRows(80, 100))

	res := waitForResult(t, results)
	if res.Err != nil {
		t.Fatalf("expected successful analysis, got %v", res.Err)
	}
	if res.Analysis.SampleCount != 100 {
		t.Errorf("expected the settled file to carry 100 rows, got %d", res.Analysis.SampleCount)
	}
	if res.Analysis.Properties.YieldIndex != 53 {
		t.Errorf("expected yield index 53, got %d", res.Analysis.Properties.YieldIndex)
	}

	// The debounce window coalesced the writes into one analysis.
	assertNoResult(t, results, 400*time.Millisecond)
}

func TestWatcher_PicksUpNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	w, results := newTestWatcher(t, dir, 50*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sub := filepath.Join(dir, "2026-08-25")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}
	// Give the event processor a moment to add the new directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "specimen_c.csv")
	writeFile(t, path, bilinearCSV())

	res := waitForResult(t, results)
	if res.Path != path {
		t.Errorf("expected result for %s, got %s", path, res.Path)
	}
	if res.Err != nil {
		t.Errorf("expected successful analysis, got %v", res.Err)
	}
}

func TestWatcher_StopHaltsDelivery(t *testing.T) {
	dir := t.TempDir()
	w, results := newTestWatcher(t, dir, 50*time.Millisecond)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	w.Stop()

	if w.IsWatching() {
		t.Error("expected IsWatching to be false after Stop")
	}

	writeFile(t, filepath.Join(dir, "late.csv"), bilinearCSV())
	assertNoResult(t, results, 300*time.Millisecond)
}

func TestWatcher_StartIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir, 50*time.Millisecond)
	defer w.Stop()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if !w.IsWatching() {
		t.Error("expected IsWatching to be true")
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestIsResultsFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/specimen.csv", true},
		{"/data/SPECIMEN.CSV", true},
		{"/data/notes.txt", false},
		{"/data/.partial.csv", false},
		{"/data/specimen.csv.tmp", false},
	}

	for _, tt := range tests {
		if got := isResultsFile(tt.path); got != tt.want {
			t.Errorf("isResultsFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	now := time.Now()
	changes := []fileChange{
		{path: "a.csv", time: now},
		{path: "b.csv", time: now.Add(time.Millisecond)},
		{path: "a.csv", time: now.Add(2 * time.Millisecond)},
	}

	got := deduplicate(changes)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated changes, got %d", len(got))
	}
	if got[0].path != "a.csv" || got[1].path != "b.csv" {
		t.Errorf("expected first-seen order, got %v then %v", got[0].path, got[1].path)
	}
	if !got[0].time.Equal(now.Add(2 * time.Millisecond)) {
		t.Errorf("expected the newest change to win for a.csv, got %v", got[0].time)
	}
}
