// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/ingest"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/report"
)

func runAnalyze(cmd *cobra.Command, args []string) {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening results file: %v", err)
	}
	defer f.Close()

	dataset, err := ingest.ReadCSV(f)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}

	svc := newAnalysisService(cfg)
	result, err := svc.Analyze(context.Background(), dataset, setupFromFlags())
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Analyzed %s (%d samples)\n\n", path, result.SampleCount)
	if err := report.Fprint(os.Stdout, result.Properties); err != nil {
		log.Fatalf("Error writing report: %v", err)
	}
}
