package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/callqa/internal/api"
	"github.com/satriahrh/callqa/internal/auth"
	"github.com/satriahrh/callqa/internal/config"
	"github.com/satriahrh/callqa/internal/metrics"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()
	svc, err := newAnalysisService(ctx, cfg, logger, m)
	if err != nil {
		return err
	}

	var issuer *auth.Issuer
	if cfg.JWTSecret != "" {
		if issuer, err = auth.NewIssuer(cfg.JWTSecret); err != nil {
			return err
		}
	} else {
		logger.Warn("API_JWT_SECRET is not set, the analysis API is unauthenticated")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	api.InitRoutes(e, svc, api.Options{
		Timeout:       cfg.AnalysisTimeout,
		MaxAudioBytes: cfg.MaxAudioBytes,
		Issuer:        issuer,
		Metrics:       m,
	}, logger)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server is shutting down...")

	// in-flight analyses get their own deadline to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisTimeout+10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
