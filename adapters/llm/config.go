package llm

import (
	"fmt"
	"regexp"

	"google.golang.org/genai"

	"github.com/satriahrh/callqa/domain"
)

const (
	defaultModel           = "gemini-3-flash-preview"
	defaultTemperature     = 0.2
	defaultTopP            = 0.95
	defaultMaxOutputTokens = 32768
)

// Google API keys are "AIza" followed by 35 URL-safe characters
var apiKeyPattern = regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`)

// GeminiConfig holds configuration for the Gemini inference adapter
// Required fields:
// - APIKey: a Google AI Studio API key
// Optional fields with defaults:
// - Model: model ID (default: "gemini-3-flash-preview")
// - Temperature: sampling temperature between 0 and 2 (default: 0.2; nil means unset, 0 is kept)
// - TopP: nucleus sampling between 0 and 1 (default: 0.95; nil means unset)
// - MaxOutputTokens: response token cap (default: 32768)
// - BaseURL: API endpoint override, for proxies and tests
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     *float32
	TopP            *float32
	MaxOutputTokens int
	BaseURL         string
}

// ValidateGeminiConfig validates the GeminiConfig. A missing or malformed
// credential is a configuration error, reported before any network attempt.
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return domain.NewError(domain.KindConfiguration, "Gemini API key is required (set GEMINI_API_KEY)")
	}
	if !apiKeyPattern.MatchString(config.APIKey) {
		return domain.NewError(domain.KindConfiguration, "Gemini API key is malformed")
	}

	// Validate temperature is in the valid range
	if t := config.Temperature; t != nil && (*t < 0 || *t > 2) {
		return domain.NewError(domain.KindConfiguration, fmt.Sprintf("temperature must be between 0 and 2, got %f", *t))
	}

	// Validate topP is in the valid range
	if p := config.TopP; p != nil && (*p < 0 || *p > 1) {
		return domain.NewError(domain.KindConfiguration, fmt.Sprintf("topP must be between 0 and 1, got %f", *p))
	}

	if config.MaxOutputTokens < 0 {
		return domain.NewError(domain.KindConfiguration, fmt.Sprintf("maxOutputTokens must be positive, got %d", config.MaxOutputTokens))
	}

	return nil
}

func (c GeminiConfig) withDefaults() GeminiConfig {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == nil {
		c.Temperature = genai.Ptr[float32](defaultTemperature)
	}
	if c.TopP == nil {
		c.TopP = genai.Ptr[float32](defaultTopP)
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = defaultMaxOutputTokens
	}
	return c
}
