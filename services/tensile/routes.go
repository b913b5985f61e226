// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tensile

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all tensile analysis routes with the router.
//
// Description:
//
//	Registers all /v1/tensile/* endpoints with the given Gin router
//	group. The group should already have any service-wide middleware
//	applied. analysisMiddleware is applied to the analyze endpoints
//	only, so health probes bypass rate limiting.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//	analysisMiddleware - Optional middleware for the analyze endpoints
//
// Endpoints:
//
//	POST /v1/tensile/analyze - Analyze inline or data-URI samples
//	POST /v1/tensile/analyze/upload - Analyze an uploaded CSV file
//
// Health Endpoints:
//
//	GET  /v1/tensile/health - Health check
//	GET  /v1/tensile/ready - Readiness check
//
// Example:
//
//	service := tensile.NewService(tensile.DefaultServiceConfig())
//	handlers := tensile.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	tensile.RegisterRoutes(v1, handlers, tensile.RateLimitMiddleware(limiter))
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, analysisMiddleware ...gin.HandlerFunc) {
	tensile := rg.Group("/tensile")
	{
		// Analysis
		analyze := tensile.Group("/analyze", analysisMiddleware...)
		{
			analyze.POST("", handlers.HandleAnalyze)
			analyze.POST("/upload", handlers.HandleAnalyzeUpload)
		}

		// Health checks
		tensile.GET("/health", handlers.HandleHealth)
		tensile.GET("/ready", handlers.HandleReady)
	}
}
