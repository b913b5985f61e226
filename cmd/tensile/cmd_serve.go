// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/telemetry"
)

// shutdownTimeout bounds how long in-flight requests may run once a
// termination signal arrives.
const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = "tensile-api"
	tcfg.ServiceVersion = tensile.ServiceVersion
	tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tcfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure

	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		log.Fatalf("Error initializing telemetry: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("Telemetry shutdown reported errors", "error", err)
		}
	}()

	svc := newAnalysisService(cfg)
	metrics, err := telemetry.NewMetrics(otel.Meter("tensile-api"))
	if err != nil {
		slog.Warn("Service metrics disabled", "error", err)
	} else {
		svc.SetMetrics(metrics)
	}

	router := buildRouter(svc, metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting tensile analysis server",
			"address", srv.Addr,
			"rate_rps", cfg.Server.RateRPS,
			"rate_burst", cfg.Server.RateBurst,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down tensile analysis server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildRouter assembles the gin engine: recovery, tracing, HTTP metrics,
// the versioned analysis routes with their rate limiter, and the
// Prometheus scrape endpoint when that exporter is selected.
func buildRouter(svc *tensile.Service, metrics *telemetry.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("tensile-api"))
	if metrics != nil {
		router.Use(telemetry.MetricsMiddleware(metrics))
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateRPS), cfg.Server.RateBurst)
	handlers := tensile.NewHandlers(svc)
	v1 := router.Group("/v1")
	tensile.RegisterRoutes(v1, handlers, tensile.RateLimitMiddleware(limiter))

	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}
	return router
}
