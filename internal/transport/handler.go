package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visualdiff/image-diff-go/internal/config"
	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
	"github.com/visualdiff/image-diff-go/internal/logger"
	"github.com/visualdiff/image-diff-go/internal/observer"
	"github.com/visualdiff/image-diff-go/internal/service"
	"github.com/visualdiff/image-diff-go/pkg/models"
)

// NewHandler builds the HTTP router: health, a single-pair comparison
// endpoint and a batch endpoint.
func NewHandler(svc service.CompareService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck(metrics))
	r.POST("/compare", compareImages(svc, cfg))
	r.POST("/compare/batch", compareBatch(svc, cfg))

	return r
}

func compareImages(svc service.CompareService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing comparison request")

		var req models.CompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		// The API never reads the server filesystem: both references must
		// be remote. Validation happens again inside the service; this
		// check only enforces the remote-only rule early.
		if err := svc.ValidateSourceRef(req.OriginalRef); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid original reference", err)
			return
		}
		if err := svc.ValidateSourceRef(req.ScreenshotRef); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid screenshot reference", err)
			return
		}

		report, err := svc.Compare(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "comparison failed", err)
			return
		}

		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"original_ref":       req.OriginalRef,
			"screenshot_ref":     req.ScreenshotRef,
			"processing_time_ms": duration.Milliseconds(),
			"match_percentage":   report.MatchPercentage,
			"band":               report.Band,
			"passed":             report.Passed,
		}).Info("Comparison completed successfully")

		c.JSON(http.StatusOK, report)
	}
}

func compareBatch(svc service.CompareService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchCompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if len(req.Pairs) == 0 {
			respondError(c, http.StatusBadRequest, "empty batch",
				apperrors.NewValidationError("at least one pair is required", nil))
			return
		}
		if len(req.Pairs) > cfg.MaxBatchSize {
			respondError(c, http.StatusBadRequest, "batch too large",
				apperrors.NewValidationError(fmt.Sprintf("at most %d pairs per batch", cfg.MaxBatchSize), nil))
			return
		}

		results := svc.CompareBatch(ctx, req.Pairs)
		c.JSON(http.StatusOK, models.BatchCompareResponse{Results: results})
	}
}

func healthCheck(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":  "available",
			"version": "1.0.0",
			"time":    time.Now().UTC().Format(time.RFC3339),
		}
		if metrics != nil {
			resp["metrics"] = metrics.GetMetrics()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Middleware and helper functions
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
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
