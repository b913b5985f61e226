// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/config"
)

// --- Global Command Variables ---
var (
	cfg *config.Config // loaded in PersistentPreRun

	cfgPath  string
	logLevel string
	logJSON  bool
	quiet    bool

	diameterMM    float64 // specimen diameter in mm
	gaugeLengthMM float64 // gauge length in mm
	rateMMS       float64 // displacement rate in mm/s (recorded, not computed on)

	servePort int // CLI override for server.port

	rootCmd = &cobra.Command{
		Use:   "tensile",
		Short: "A cli to analyze tensile test measurements",
		Long: `Tensile derives mechanical properties from load/displacement data
				recorded during a tensile test: Young's modulus, yield stress,
				ultimate tensile strength, and failure strain.`,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [file.csv]",
		Short: "Analyze a single results file and print the derived properties",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyze, // Defined in cmd_analyze.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the tensile analysis HTTP server",
		Run:   runServe, // Defined in cmd_serve.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and analyze results files as they appear",
		Long: `Watch monitors a results directory and analyzes every CSV file a
				test rig drops or updates there, using one fixed specimen setup.
				Each settled file is analyzed once and its report printed.`,
		Args: cobra.ExactArgs(1),
		Run:  runWatch, // Defined in cmd_watch.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Path to the config file (default: $TENSILE_CONFIG, then ~/.tensile/tensile.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log to stderr as JSON")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Disable stderr logging")

	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&diameterMM, "diameter", 0, "Specimen diameter in mm (required)")
	analyzeCmd.Flags().Float64Var(&gaugeLengthMM, "gauge-length", 0, "Gauge length in mm (required)")
	analyzeCmd.Flags().Float64Var(&rateMMS, "rate", 0, "Displacement rate in mm/s (default 2)")
	analyzeCmd.MarkFlagRequired("diameter")
	analyzeCmd.MarkFlagRequired("gauge-length")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides the config file)")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Float64Var(&diameterMM, "diameter", 0, "Specimen diameter in mm (required)")
	watchCmd.Flags().Float64Var(&gaugeLengthMM, "gauge-length", 0, "Gauge length in mm (required)")
	watchCmd.Flags().Float64Var(&rateMMS, "rate", 0, "Displacement rate in mm/s (default 2)")
	watchCmd.MarkFlagRequired("diameter")
	watchCmd.MarkFlagRequired("gauge-length")
}
