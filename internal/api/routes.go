package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
	"github.com/satriahrh/callqa/internal/auth"
	"github.com/satriahrh/callqa/internal/metrics"
	"github.com/satriahrh/callqa/internal/prompt"
	"github.com/satriahrh/callqa/internal/schema"
)

// multipart framing on top of the audio itself
const multipartOverhead = 1 << 20

// AnalysisService is what the API needs from the analysis core
type AnalysisService interface {
	ReportReader(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisReport, error)
	Rubric() prompt.Rubric
}

// Options tunes the routes. A nil Issuer disables authentication and a nil
// Metrics disables /metrics.
type Options struct {
	Timeout       time.Duration
	MaxAudioBytes int64
	Issuer        *auth.Issuer
	Metrics       *metrics.Metrics
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, svc AnalysisService, opts Options, logger *zap.Logger) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "callqa",
		})
	})

	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	if opts.Issuer != nil {
		v1.Use(bearerAuth(opts.Issuer, logger))
	}

	v1.GET("/rubric", func(c echo.Context) error {
		r := svc.Rubric()
		return c.JSON(http.StatusOK, RubricResponse{
			Name:          r.Name,
			Version:       r.Version,
			Agent:         r.Agent,
			Brands:        r.Brands,
			SchemaVersion: schema.Version,
		})
	})

	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dK", (opts.MaxAudioBytes+multipartOverhead)/1024))
	v1.POST("/analyses", func(c echo.Context) error {
		return analyzeCall(c, svc, opts, logger)
	}, bodyLimit)
}

func analyzeCall(c echo.Context, svc AnalysisService, opts Options, logger *zap.Logger) error {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	file, err := c.FormFile("audio")
	if err != nil {
		logger.Warn("Analysis request without audio", zap.String("request_id", requestID), zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "multipart field \"audio\" is required",
		})
	}

	if file.Size > opts.MaxAudioBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "audio_too_large",
			Message: fmt.Sprintf("audio is %d bytes, limit is %d", file.Size, opts.MaxAudioBytes),
		})
	}

	mediaType := file.Header.Get(echo.HeaderContentType)
	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded audio", zap.String("request_id", requestID), zap.Error(err))
		return writeAnalysisError(c, domain.WrapError(domain.KindEncoding, err, "failed to read uploaded audio"))
	}
	defer src.Close()

	logger.Info("Analyzing uploaded call",
		zap.String("request_id", requestID),
		zap.String("filename", file.Filename),
		zap.String("mediaType", mediaType),
		zap.Int64("size", file.Size))

	ctx, cancel := context.WithTimeout(c.Request().Context(), opts.Timeout)
	defer cancel()

	report, err := svc.ReportReader(ctx, src, mediaType)
	if err != nil {
		return writeAnalysisError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

func writeAnalysisError(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	if kind == "" {
		return err
	}

	var de *domain.Error
	errors.As(err, &de)
	return c.JSON(StatusForKind(kind), ErrorResponse{
		Error:   string(kind),
		Reason:  string(de.Reason),
		Message: de.Error(),
	})
}

// StatusForKind maps an error kind onto the HTTP status returned to clients
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindEncoding:
		return http.StatusBadRequest
	case domain.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case domain.KindInferenceTransport, domain.KindEmptyResponse, domain.KindMalformedResponse:
		return http.StatusBadGateway
	case domain.KindCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// bearerAuth validates the Authorization header and requires the analyst role
func bearerAuth(issuer *auth.Issuer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || token == "" {
				logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := issuer.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			if claims.Role != auth.RoleAnalyst {
				logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Only analyst tokens may use the analysis API",
				})
			}

			c.Set("subject", claims.Subject)
			return next(c)
		}
	}
}
