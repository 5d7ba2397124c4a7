package llm

import (
	"context"
	_ "embed"

	"github.com/satriahrh/callqa/domain/repositories"
)

//go:embed fixtures/sample_analysis.json
var sampleAnalysis string

// MockInferenceClient answers every request with a canned analysis, for
// offline development and demos without a Gemini key
type MockInferenceClient struct {
	response string
}

var _ repositories.InferenceClient = (*MockInferenceClient)(nil)

// NewMockInferenceClient creates a mock client returning the bundled sample analysis
func NewMockInferenceClient() *MockInferenceClient {
	return &MockInferenceClient{response: sampleAnalysis}
}

// Model implements repositories.InferenceClient
func (m *MockInferenceClient) Model() string {
	return "mock"
}

// Generate implements repositories.InferenceClient
func (m *MockInferenceClient) Generate(ctx context.Context, req repositories.InferenceRequest) (repositories.InferenceResponse, error) {
	if err := ctx.Err(); err != nil {
		return repositories.InferenceResponse{}, err
	}
	text := m.response
	return repositories.InferenceResponse{Text: &text}, nil
}
