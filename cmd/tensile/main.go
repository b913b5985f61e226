// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tensile analyzes tensile test measurements.
//
// The tool derives mechanical properties (Young's modulus, yield stress,
// ultimate tensile strength, failure strain) from load/displacement data
// recorded by a test rig, either one file at a time, as an HTTP API, or
// by watching a results directory.
//
// Usage:
//
//	# Analyze a single results file
//	tensile analyze specimen.csv --diameter 6 --gauge-length 32.2
//
//	# Start the analysis API on the configured port
//	tensile serve
//
//	# Start on a specific port with a specific config file
//	tensile serve --port 9090 --config ./tensile.yaml
//
//	# Analyze every results file a rig drops into a directory
//	tensile watch /srv/rig/results --diameter 6 --gauge-length 32.2
//
// Example requests against a running server:
//
//	# Health check
//	curl http://localhost:8080/v1/tensile/health
//
//	# Analyze inline sample arrays
//	curl -X POST http://localhost:8080/v1/tensile/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"setup": {"diameter_mm": 6, "gauge_length_mm": 32.2},
//	       "loads_kn": [0, 0.2, 0.4], "displacements_mm": [0, 0.03, 0.06]}'
//
//	# Analyze an uploaded CSV file
//	curl -X POST http://localhost:8080/v1/tensile/analyze/upload \
//	  -F "diameter_mm=6" -F "gauge_length_mm=32.2" -F "file=@specimen.csv"
package main

import (
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2022ugmm081/tensile-test-analyser/pkg/logging"
)

// appLogger is the process-wide logger, built in PersistentPreRun once
// the config and logging flags are known.
var appLogger *logging.Logger

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg = loadConfig()

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		appLogger = logging.New(logging.Config{
			Level:   parseLogLevel(level),
			LogDir:  cfg.Logging.Dir,
			Service: serviceNameFor(cmd),
			JSON:    logJSON || cfg.Logging.JSON,
			Quiet:   quiet,
		})
		slog.SetDefault(appLogger.Slog())
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			appLogger.Close()
		}
	}
}

// serviceNameFor picks the service attribute logged by each command.
func serviceNameFor(cmd *cobra.Command) string {
	switch cmd.Name() {
	case "serve":
		return "tensile-api"
	case "watch":
		return "tensile-watch"
	default:
		return "tensile-cli"
	}
}
