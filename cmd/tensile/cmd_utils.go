// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"strings"

	"github.com/2022ugmm081/tensile-test-analyser/pkg/logging"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/config"
)

// loadConfig resolves and loads the config file. Missing files are
// created with defaults, so first runs need no setup.
func loadConfig() *config.Config {
	loaded, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	return loaded
}

// newAnalysisService builds the analysis service from the config file's
// tunables. All three commands share this path so a threshold set in
// the config applies to CLI, server, and watch runs alike.
func newAnalysisService(cfg *config.Config) *tensile.Service {
	svcCfg := tensile.DefaultServiceConfig()
	svcCfg.DeviationThreshold = cfg.Analysis.DeviationThreshold
	svcCfg.LinearFraction = cfg.Analysis.LinearFraction
	svcCfg.MaxSamples = cfg.Analysis.MaxSamples
	return tensile.NewService(svcCfg)
}

// setupFromFlags assembles the specimen setup shared by the analyze and
// watch commands.
func setupFromFlags() tensile.TestSetup {
	return tensile.TestSetup{
		DiameterMM:          diameterMM,
		GaugeLengthMM:       gaugeLengthMM,
		DisplacementRateMMS: rateMMS,
	}
}

// parseLogLevel maps a config or flag value onto a logging level.
// Unknown values fall back to Info.
func parseLogLevel(level string) logging.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logging.LevelDebug
	case "info":
		return logging.LevelInfo
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
