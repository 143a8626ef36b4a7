package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-morph-detector/internal/config"
	apperrors "go-morph-detector/internal/errors"
	"go-morph-detector/internal/logger"
	"go-morph-detector/internal/morph"
	"go-morph-detector/internal/observer"
	"go-morph-detector/internal/service"
)

// AnalyzeRequest is the analyze endpoint payload. All analysis fields are
// optional overrides of the server defaults.
type AnalyzeRequest struct {
	URL            string             `json:"url" binding:"required,url"`
	PatchSize      *int               `json:"patch_size,omitempty"`
	LowThreshold   *float64           `json:"low_threshold,omitempty"`
	HighThreshold  *float64           `json:"high_threshold,omitempty"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	DisableSignals []string           `json:"disable_signals,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface of the detector.
func NewHandler(svc service.MorphAnalysisService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.GET("/metrics", analysisMetrics(metrics))
	r.POST("/analyze", analyzeImage(svc, cfg))

	return r
}

func analyzeImage(svc service.MorphAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		analysisCfg := buildAnalysisConfig(cfg, req)

		report, err := svc.AnalyzeImageURL(ctx, req.URL, analysisCfg)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"url": req.URL,
				"ip":  c.ClientIP(),
			}).Error("Image analysis failed")
			respondError(c, determineStatusCode(err), "image analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"verdict":            report.Verdict,
			"composite_score":    report.CompositeScore,
			"confidence":         report.Confidence,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Image analysis completed")

		c.JSON(http.StatusOK, report)
	}
}

// buildAnalysisConfig layers request overrides over the server defaults.
func buildAnalysisConfig(cfg *config.Config, req AnalyzeRequest) morph.AnalysisConfig {
	analysisCfg := morph.DefaultConfig().
		WithPatchSize(cfg.PatchSize).
		WithMaxDimension(cfg.MaxDimension).
		WithThresholds(cfg.LowThreshold, cfg.HighThreshold).
		WithSignalTimeout(cfg.SignalTimeout)

	if req.PatchSize != nil {
		analysisCfg = analysisCfg.WithPatchSize(*req.PatchSize)
	}
	if req.LowThreshold != nil || req.HighThreshold != nil {
		low, high := analysisCfg.LowThreshold, analysisCfg.HighThreshold
		if req.LowThreshold != nil {
			low = *req.LowThreshold
		}
		if req.HighThreshold != nil {
			high = *req.HighThreshold
		}
		analysisCfg = analysisCfg.WithThresholds(low, high)
	}
	if len(req.Weights) > 0 {
		merged := make(map[string]float64, len(analysisCfg.Weights))
		for k, v := range analysisCfg.Weights {
			merged[k] = v
		}
		for k, v := range req.Weights {
			merged[k] = v
		}
		analysisCfg = analysisCfg.WithWeights(merged)
	}
	for _, name := range req.DisableSignals {
		analysisCfg = analysisCfg.WithoutSignal(name)
	}
	return analysisCfg
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func analysisMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.Metrics())
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
