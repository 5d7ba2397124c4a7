package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
	"github.com/satriahrh/callqa/domain/repositories"
	"github.com/satriahrh/callqa/internal/audio"
	"github.com/satriahrh/callqa/internal/metrics"
	"github.com/satriahrh/callqa/internal/prompt"
	"github.com/satriahrh/callqa/internal/schema"
	"github.com/satriahrh/callqa/internal/validator"
)

const maxLoggedRawChars = 512

// AnalysisService orchestrates one call analysis: encode the audio, build
// the prompt, make a single inference call and validate what comes back.
// It holds no per-call state and is safe for concurrent use.
type AnalysisService struct {
	client    repositories.InferenceClient
	builder   *prompt.Builder
	rubric    prompt.Rubric
	contract  *genai.Schema
	validator *validator.Validator
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// AnalysisServiceOption customizes an AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithRubric replaces the built-in SOP rubric
func WithRubric(r prompt.Rubric) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.rubric = r
	}
}

// WithMetrics records analysis outcomes and latencies
func WithMetrics(m *metrics.Metrics) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.metrics = m
	}
}

// NewAnalysisService creates a new analysis service around an inference client
func NewAnalysisService(client repositories.InferenceClient, logger *zap.Logger, opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		client:    client,
		builder:   prompt.NewBuilder(),
		rubric:    prompt.DefaultRubric(),
		contract:  schema.Contract(),
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rubric returns the rubric calls are evaluated against
func (s *AnalysisService) Rubric() prompt.Rubric {
	return s.rubric
}

// Analyze runs a full analysis of an in-memory audio file
func (s *AnalysisService) Analyze(ctx context.Context, audioData []byte, mediaType string) (*entities.AnalysisResult, error) {
	result, _, err := s.analyze(ctx, bytes.NewReader(audioData), mediaType)
	return result, err
}

// AnalyzeReader runs a full analysis of audio read from r. Read failures
// are reported as encoding errors.
func (s *AnalysisService) AnalyzeReader(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisResult, error) {
	result, _, err := s.analyze(ctx, r, mediaType)
	return result, err
}

// Report analyzes in-memory audio and wraps the result with its provenance
func (s *AnalysisService) Report(ctx context.Context, audioData []byte, mediaType string) (*entities.AnalysisReport, error) {
	return s.ReportReader(ctx, bytes.NewReader(audioData), mediaType)
}

// ReportReader analyzes audio read from r and wraps the result with its provenance
func (s *AnalysisService) ReportReader(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisReport, error) {
	result, payload, err := s.analyze(ctx, r, mediaType)
	if err != nil {
		return nil, err
	}
	return entities.NewAnalysisReport(result, entities.ReportMetadata{
		Model:         s.client.Model(),
		MediaType:     payload.MediaType,
		AudioBytes:    payload.Size,
		RubricName:    s.rubric.Name,
		RubricVersion: s.rubric.Version,
		SchemaVersion: schema.Version,
	}), nil
}

func (s *AnalysisService) analyze(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisResult, *audio.EncodedPayload, error) {
	start := time.Now()
	done := s.metrics.Start()
	defer done()

	result, payload, err := s.run(ctx, r, mediaType)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(domain.KindOf(err))
		s.logFailure(err, mediaType, time.Since(start))
	} else {
		s.logger.Info("Call analysis completed",
			zap.String("mediaType", payload.MediaType),
			zap.Int("audioBytes", payload.Size),
			zap.Int("transcriptEntries", len(result.Transcript())),
			zap.Int("sentimentPoints", len(result.Sentiment())),
			zap.Duration("elapsed", time.Since(start)))
	}
	s.metrics.ObserveAnalysis(outcome, time.Since(start))

	return result, payload, err
}

func (s *AnalysisService) run(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisResult, *audio.EncodedPayload, error) {
	if !audio.IsAudioMediaType(mediaType) {
		return nil, nil, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("media type %q is not audio/*", mediaType))
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(err)
	}

	payload, err := audio.Encode(r, mediaType)
	if err != nil {
		return nil, nil, err
	}
	if payload.Size == 0 {
		return nil, nil, domain.NewError(domain.KindInvalidInput, "audio is empty")
	}
	s.metrics.ObserveAudio(payload.Size)

	promptText := s.builder.Build(s.rubric)

	// Nothing has gone over the network yet; stop here if the caller gave up
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(err)
	}

	inferenceStart := time.Now()
	response, err := s.client.Generate(ctx, repositories.InferenceRequest{
		Audio:  payload,
		Prompt: promptText,
		Schema: s.contract,
	})
	s.metrics.ObserveInference(time.Since(inferenceStart))
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, cancelled(err)
		}
		return nil, nil, domain.WrapError(domain.KindInferenceTransport, err, "inference call failed")
	}

	if response.Text == nil || strings.TrimSpace(*response.Text) == "" {
		return nil, nil, domain.NewError(domain.KindEmptyResponse, "model returned no text")
	}

	result, err := s.validator.Parse(*response.Text)
	if err != nil {
		return nil, nil, err
	}

	// Results are all-or-nothing: a cancelled call never yields one
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(err)
	}

	return result, payload, nil
}

func (s *AnalysisService) logFailure(err error, mediaType string, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("kind", string(domain.KindOf(err))),
		zap.String("mediaType", mediaType),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	}
	if reason := domain.ReasonOf(err); reason != "" {
		fields = append(fields, zap.String("reason", string(reason)))
	}
	if raw := domain.RawOf(err); raw != "" {
		fields = append(fields, zap.String("raw", truncate(raw, maxLoggedRawChars)))
	}
	s.logger.Warn("Call analysis failed", fields...)
}

func cancelled(err error) error {
	return domain.WrapError(domain.KindCancelled, err, "analysis cancelled")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
