// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import "fmt"

type Config struct {
	// Server: HTTP listener and per-client rate limits
	Server ServerConfig `yaml:"server"`

	// Analysis: tunables for the property-extraction pipeline
	Analysis AnalysisConfig `yaml:"analysis"`

	// Telemetry: trace and metric exporter selection
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging: level and optional file destination
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port      int     `yaml:"port"`       // e.g. 8080
	RateRPS   float64 `yaml:"rate_rps"`   // sustained requests per second per client
	RateBurst int     `yaml:"rate_burst"` // e.g. 20
}

type AnalysisConfig struct {
	// DeviationThreshold is the relative departure from the linear fit
	// that marks the yield point. e.g. 0.05
	DeviationThreshold float64 `yaml:"deviation_threshold"`

	// LinearFraction is the leading share of the curve fitted as the
	// elastic region. e.g. 0.1
	LinearFraction float64 `yaml:"linear_fraction"`

	// MaxSamples caps rows accepted per dataset. e.g. 100000
	MaxSamples int `yaml:"max_samples"`
}

type TelemetryConfig struct {
	// TraceExporter can be "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter can be "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`

	OTLPEndpoint string `yaml:"otlp_endpoint"` // e.g. localhost:4317
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", or "error"
	Dir   string `yaml:"dir"`   // file logging directory, empty disables files
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:      8080,
			RateRPS:   10,
			RateBurst: 20,
		},
		Analysis: AnalysisConfig{
			DeviationThreshold: 0.05,
			LinearFraction:     0.1,
			MaxSamples:         100000,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
			JSON:  false,
		},
	}
}

// Validate checks every tunable against its legal range.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.RateRPS <= 0 {
		return fmt.Errorf("server.rate_rps must be positive, got %g", c.Server.RateRPS)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be at least 1, got %d", c.Server.RateBurst)
	}
	if c.Analysis.DeviationThreshold <= 0 {
		return fmt.Errorf("analysis.deviation_threshold must be positive, got %g",
			c.Analysis.DeviationThreshold)
	}
	if c.Analysis.LinearFraction <= 0 || c.Analysis.LinearFraction > 1 {
		return fmt.Errorf("analysis.linear_fraction must be in (0, 1], got %g",
			c.Analysis.LinearFraction)
	}
	if c.Analysis.MaxSamples < 2 {
		return fmt.Errorf("analysis.max_samples must be at least 2, got %d",
			c.Analysis.MaxSamples)
	}
	switch c.Telemetry.TraceExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.trace_exporter must be otlp, stdout, or none, got %q",
			c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.metric_exporter must be prometheus, stdout, or none, got %q",
			c.Telemetry.MetricExporter)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q",
			c.Logging.Level)
	}
	return nil
}
