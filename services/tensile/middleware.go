// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tensile

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware rejects requests once the shared limiter is
// exhausted.
//
// Description:
//
//	Applies a token-bucket limit across all requests passing through
//	the middleware. Rejected requests receive 429 with a Retry-After
//	hint and never reach the handler.
//
// Inputs:
//
//	limiter - Shared token bucket, e.g. rate.NewLimiter(rate.Limit(10), 20)
//
// Outputs:
//
//	gin.HandlerFunc - The middleware
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
