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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/report"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/watch"
)

func runWatch(cmd *cobra.Command, args []string) {
	dir := args[0]

	svc := newAnalysisService(cfg)
	watcher, err := watch.New(dir, svc, setupFromFlags(), printWatchResult, nil)
	if err != nil {
		log.Fatalf("Error creating watcher: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil {
		log.Fatalf("Error starting watcher: %v", err)
	}
	defer watcher.Stop()

	fmt.Printf("Watching %s for results files. Press Ctrl+C to stop.\n", dir)
	<-ctx.Done()
	fmt.Println("\nStopping watch.")
}

// printWatchResult renders each settled file's report. Failures are
// already logged by the watcher; the console stays reserved for results.
func printWatchResult(res watch.Result) {
	if res.Err != nil {
		return
	}
	fmt.Printf("\n=== %s (%d samples) ===\n", res.Path, res.Analysis.SampleCount)
	report.Fprint(os.Stdout, res.Analysis.Properties)
}
