package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/callqa/adapters/llm"
	"github.com/satriahrh/callqa/domain/repositories"
	"github.com/satriahrh/callqa/internal/config"
	"github.com/satriahrh/callqa/internal/metrics"
	"github.com/satriahrh/callqa/internal/prompt"
	"github.com/satriahrh/callqa/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "callqa",
		Short:         "Sales call transcription, sentiment and coaching analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newAnalyzeCommand(), newWatchCommand(), newTokenCommand())
	return root
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	return zapCfg.Build()
}

// newAnalysisService wires the inference backend, rubric and metrics into
// the analysis core
func newAnalysisService(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*usecase.AnalysisService, error) {
	rubric := prompt.DefaultRubric()
	if cfg.RubricPath != "" {
		var err error
		rubric, err = prompt.LoadRubric(cfg.RubricPath)
		if err != nil {
			return nil, err
		}
	}

	var client repositories.InferenceClient
	switch cfg.Provider {
	case config.ProviderMock:
		logger.Warn("Using mock inference client, results are canned")
		client = llm.NewMockInferenceClient()
	default:
		gemini, err := llm.NewGeminiInferenceClient(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		client = gemini
	}

	logger.Info("Analysis service ready",
		zap.String("model", client.Model()),
		zap.String("rubric", rubric.Name),
		zap.String("rubricVersion", rubric.Version))

	return usecase.NewAnalysisService(client, logger,
		usecase.WithRubric(rubric),
		usecase.WithMetrics(m),
	), nil
}
