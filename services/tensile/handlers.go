// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tensile

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/ingest"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/mechprops"
)

// ServiceVersion is the tensile service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the tensile service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/tensile/analyze.
//
// Description:
//
//	Analyzes a measured load/displacement dataset into mechanical
//	properties. Samples arrive either as inline arrays or as a base64
//	data URI carrying a results CSV; exactly one source must be present.
//
// Request Body:
//
//	AnalyzeRequest
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Malformed body, invalid setup, or bad sample data
//	413 Request Entity Too Large: Dataset exceeds the sample cap
//	422 Unprocessable Entity: Properties cannot be derived from the data
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	ds, err := datasetFromRequest(&req)
	if err != nil {
		statusCode, errCode := analysisErrorStatus(err)
		logger.Warn("Rejecting sample payload", "error", err)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	logger.Info("Analyzing dataset",
		"samples", ds.Len(),
		"diameter_mm", req.Setup.DiameterMM,
		"gauge_length_mm", req.Setup.GaugeLengthMM)

	result, err := h.svc.Analyze(c.Request.Context(), ds, req.Setup)
	if err != nil {
		statusCode, errCode := analysisErrorStatus(err)
		logger.Error("Analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	logger.Info("Analysis complete",
		"yield_index", result.Properties.YieldIndex,
		"uts_mpa", result.Properties.UltimateTensileStrengthMPa)

	c.JSON(http.StatusOK, buildAnalyzeResponse(requestID, ds, result))
}

// HandleAnalyzeUpload handles POST /v1/tensile/analyze/upload.
//
// Description:
//
//	Analyzes an uploaded results CSV file. The multipart form carries
//	the file under "file" plus the specimen fields diameter_mm,
//	gauge_length_mm and displacement_rate_mm_s.
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Missing file, invalid setup, or a bad CSV
//	413 Request Entity Too Large: File or dataset exceeds limits
//	422 Unprocessable Entity: Properties cannot be derived from the data
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyzeUpload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyzeUpload")

	var setup TestSetup
	if err := c.ShouldBind(&setup); err != nil {
		logger.Warn("Invalid form values", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid form values",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Missing upload file", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing upload file",
			Code:  "MISSING_FILE",
		})
		return
	}

	if limit := h.svc.config.MaxUploadBytes; limit > 0 && fileHeader.Size > limit {
		err := fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, fileHeader.Size, limit)
		statusCode, errCode := analysisErrorStatus(err)
		logger.Warn("Rejecting upload", "error", err, "bytes", fileHeader.Size)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open upload", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "UPLOAD_FAILED",
		})
		return
	}
	defer file.Close()

	ds, err := ingest.ReadCSV(file)
	if err != nil {
		statusCode, errCode := analysisErrorStatus(err)
		logger.Warn("Rejecting uploaded CSV", "error", err, "filename", fileHeader.Filename)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	logger.Info("Analyzing uploaded file",
		"filename", fileHeader.Filename,
		"samples", ds.Len(),
		"diameter_mm", setup.DiameterMM,
		"gauge_length_mm", setup.GaugeLengthMM)

	result, err := h.svc.Analyze(c.Request.Context(), ds, setup)
	if err != nil {
		statusCode, errCode := analysisErrorStatus(err)
		logger.Error("Analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	c.JSON(http.StatusOK, buildAnalyzeResponse(requestID, ds, result))
}

// HandleHealth handles GET /v1/tensile/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/tensile/ready.
//
// Description:
//
//	Reports whether the service can accept analysis requests. The
//	service is stateless, so readiness only requires that it has been
//	wired up.
func (h *Handlers) HandleReady(c *gin.Context) {
	if h.svc == nil {
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:             true,
		AnalysesCompleted: h.svc.AnalysesCompleted(),
	})
}

// getOrCreateRequestID returns the request ID from the X-Request-ID
// header, generating one if absent. The ID is echoed on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// datasetFromRequest resolves the request's sample source. Inline
// series and CSV contents are mutually exclusive.
func datasetFromRequest(req *AnalyzeRequest) (*ingest.Dataset, error) {
	hasInline := len(req.LoadsKN) > 0 || len(req.DisplacementsMM) > 0
	hasCSV := req.CSVContents != ""

	switch {
	case hasInline && hasCSV:
		return nil, ErrConflictingInput
	case hasCSV:
		raw, err := ingest.ParseDataURI(req.CSVContents)
		if err != nil {
			return nil, err
		}
		return ingest.ReadCSV(bytes.NewReader(raw))
	case hasInline:
		return &ingest.Dataset{
			LoadsKN:         req.LoadsKN,
			DisplacementsMM: req.DisplacementsMM,
		}, nil
	default:
		return nil, ErrNoSamples
	}
}

// buildAnalyzeResponse assembles the API response from an analysis.
func buildAnalyzeResponse(requestID string, ds *ingest.Dataset, result *AnalysisResult) AnalyzeResponse {
	props := result.Properties
	return AnalyzeResponse{
		RequestID:  requestID,
		Properties: PropertySummaryFrom(props),
		StressStrain: Series{
			X: props.Curve.Strain,
			Y: props.Curve.Stress,
		},
		LoadDisplacement: Series{
			X: ds.DisplacementsMM,
			Y: ds.LoadsKN,
		},
		SampleCount: result.SampleCount,
	}
}

// analysisErrorStatus maps an analysis error to an HTTP status code and
// a machine-readable error code.
func analysisErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidSetup):
		return http.StatusBadRequest, "INVALID_SETUP"
	case errors.Is(err, ErrNoSamples):
		return http.StatusBadRequest, "NO_SAMPLES"
	case errors.Is(err, ErrConflictingInput):
		return http.StatusBadRequest, "CONFLICTING_INPUT"
	case errors.Is(err, ErrTooManySamples):
		return http.StatusRequestEntityTooLarge, "TOO_MANY_SAMPLES"
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, ingest.ErrTooManyRows):
		return http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS"
	case errors.Is(err, ingest.ErrBadDataURI):
		return http.StatusBadRequest, "BAD_DATA_URI"
	case errors.Is(err, ingest.ErrMissingColumn):
		return http.StatusBadRequest, "MISSING_COLUMN"
	case errors.Is(err, ingest.ErrMalformedRow):
		return http.StatusBadRequest, "MALFORMED_ROW"
	case errors.Is(err, ingest.ErrEmptyDataset):
		return http.StatusBadRequest, "EMPTY_DATASET"
	case errors.Is(err, mechprops.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, mechprops.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	case errors.Is(err, mechprops.ErrNoYieldDetected):
		return http.StatusUnprocessableEntity, "NO_YIELD_DETECTED"
	case errors.Is(err, mechprops.ErrNumericDegeneracy):
		return http.StatusUnprocessableEntity, "NUMERIC_DEGENERACY"
	default:
		return http.StatusInternalServerError, "ANALYSIS_FAILED"
	}
}
