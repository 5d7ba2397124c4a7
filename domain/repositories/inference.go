package repositories

import (
	"context"

	"google.golang.org/genai"

	"github.com/satriahrh/callqa/internal/audio"
)

// InferenceClient abstracts the remote multimodal model that does the
// transcription, scoring and coaching in a single round-trip
type InferenceClient interface {
	// Generate sends one request and returns the model's textual payload.
	// Errors are transport-level failures (network, auth, rate limits).
	Generate(ctx context.Context, req InferenceRequest) (InferenceResponse, error)
	// Model names the model answering requests, for report provenance
	Model() string
}

// InferenceRequest carries everything the model needs for one analysis
type InferenceRequest struct {
	Audio  *audio.EncodedPayload
	Prompt string
	Schema *genai.Schema
}

// InferenceResponse is the model's answer. Text is nil when the call
// succeeded but produced no textual content.
type InferenceResponse struct {
	Text *string
}
