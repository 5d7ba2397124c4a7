package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/callqa/domain/repositories"
)

// GeminiInferenceClient implements the InferenceClient interface using Google's Gemini API
type GeminiInferenceClient struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	maxOutputTokens int
}

var _ repositories.InferenceClient = (*GeminiInferenceClient)(nil)

// NewGeminiInferenceClient creates a new Gemini client. The configuration is
// validated first so a bad credential never reaches the network.
func NewGeminiInferenceClient(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiInferenceClient, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini inference client ready",
		zap.String("model", config.Model),
		zap.Float32("temperature", *config.Temperature),
		zap.Float32("topP", *config.TopP),
		zap.Int("maxOutputTokens", config.MaxOutputTokens))

	return &GeminiInferenceClient{
		client:          client,
		logger:          logger,
		model:           config.Model,
		temperature:     *config.Temperature,
		topP:            *config.TopP,
		maxOutputTokens: config.MaxOutputTokens,
	}, nil
}

// Model returns the Gemini model ID
func (g *GeminiInferenceClient) Model() string {
	return g.model
}

// Generate sends the audio inline with the prompt and asks for JSON matching req.Schema
func (g *GeminiInferenceClient) Generate(ctx context.Context, req repositories.InferenceRequest) (repositories.InferenceResponse, error) {
	// genai base64-encodes inline data itself, so hand it the raw bytes
	data, err := req.Audio.Decode()
	if err != nil {
		return repositories.InferenceResponse{}, fmt.Errorf("failed to decode audio payload: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, req.Audio.MediaType),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
		Temperature:      genai.Ptr(g.temperature),
		TopP:             genai.Ptr(g.topP),
		MaxOutputTokens:  int32(g.maxOutputTokens),
	}

	start := time.Now()
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Gemini request failed",
			zap.String("model", g.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return repositories.InferenceResponse{}, err
	}

	text := response.Text()
	if text == "" {
		g.logger.Warn("Gemini returned no text",
			zap.String("model", g.model),
			zap.String("finishReason", finishReason(response)),
			zap.String("blockReason", blockReason(response)))
		return repositories.InferenceResponse{}, nil
	}

	g.logger.Info("Gemini response received",
		zap.String("model", g.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("audioBytes", len(data)),
		zap.Int("responseChars", len(text)))

	return repositories.InferenceResponse{Text: &text}, nil
}

func finishReason(r *genai.GenerateContentResponse) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	return string(r.Candidates[0].FinishReason)
}

func blockReason(r *genai.GenerateContentResponse) string {
	if r.PromptFeedback == nil {
		return ""
	}
	return string(r.PromptFeedback.BlockReason)
}
