package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisReport wraps a result with the provenance needed to interpret it later:
// which rubric and schema version produced it and from what input.
type AnalysisReport struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Model         string          `json:"model"`
	MediaType     string          `json:"media_type"`
	AudioBytes    int             `json:"audio_bytes"`
	RubricName    string          `json:"rubric_name"`
	RubricVersion string          `json:"rubric_version"`
	SchemaVersion string          `json:"schema_version"`
	Result        *AnalysisResult `json:"result"`
}

// ReportMetadata describes how a result was produced
type ReportMetadata struct {
	Model         string
	MediaType     string
	AudioBytes    int
	RubricName    string
	RubricVersion string
	SchemaVersion string
}

// NewAnalysisReport stamps a result with a fresh ID and creation time
func NewAnalysisReport(result *AnalysisResult, meta ReportMetadata) *AnalysisReport {
	return &AnalysisReport{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Model:         meta.Model,
		MediaType:     meta.MediaType,
		AudioBytes:    meta.AudioBytes,
		RubricName:    meta.RubricName,
		RubricVersion: meta.RubricVersion,
		SchemaVersion: meta.SchemaVersion,
		Result:        result,
	}
}
