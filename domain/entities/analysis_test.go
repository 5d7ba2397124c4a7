package entities

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleResult() *AnalysisResult {
	return NewAnalysisResult(
		[]TranscriptEntry{
			{Speaker: SpeakerSalesperson, Text: "Thanks for calling Archival Designs, this is Paulo.", Timestamp: "00:00"},
			{Speaker: SpeakerProspect, Text: "Hi, I'm calling about plan 42031.", Timestamp: "00:05"},
		},
		[]SentimentPoint{
			{Time: "00:00", Seconds: 0, Score: 55},
			{Time: "00:30", Seconds: 30, Score: 70},
		},
		CoachingReport{
			Strengths:           []string{"Correct brand greeting"},
			MissedOpportunities: []string{"Did not use NATO alphabet for email"},
			Summary:             "Archival Designs, plan 42031, routed to the Modification Request form.",
		},
	)
}

func TestAnalysisResultIsImmutable(t *testing.T) {
	transcript := []TranscriptEntry{{Speaker: SpeakerProspect, Text: "hello", Timestamp: "00:01"}}
	strengths := []string{"a"}
	result := NewAnalysisResult(transcript, []SentimentPoint{{Time: "00:01", Seconds: 1, Score: 50}}, CoachingReport{Strengths: strengths, Summary: "s"})

	// Mutating the constructor inputs must not leak into the result
	transcript[0].Text = "changed"
	strengths[0] = "changed"

	if got := result.Transcript()[0].Text; got != "hello" {
		t.Errorf("Expected transcript text hello, got %s", got)
	}
	if got := result.Coaching().Strengths[0]; got != "a" {
		t.Errorf("Expected strength a, got %s", got)
	}

	// Mutating accessor output must not leak either
	result.Transcript()[0].Text = "changed"
	result.Sentiment()[0].Score = 0
	result.Coaching().Strengths[0] = "changed"

	if got := result.Transcript()[0].Text; got != "hello" {
		t.Errorf("Expected transcript text hello, got %s", got)
	}
	if got := result.Sentiment()[0].Score; got != 50 {
		t.Errorf("Expected score 50, got %f", got)
	}
	if got := result.Coaching().Strengths[0]; got != "a" {
		t.Errorf("Expected strength a, got %s", got)
	}
}

func TestAnalysisResultMarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleResult())
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	for _, key := range []string{"transcript", "sentiment", "coaching"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %s in JSON output", key)
		}
	}

	coaching := decoded["coaching"].(map[string]any)
	if _, ok := coaching["missedOpportunities"]; !ok {
		t.Error("Expected camelCase missedOpportunities key")
	}
}

func TestEmptyCoachingListsMarshalAsArrays(t *testing.T) {
	result := NewAnalysisResult(
		[]TranscriptEntry{{Speaker: SpeakerProspect, Text: "hello", Timestamp: "00:01"}},
		[]SentimentPoint{{Time: "00:01", Seconds: 1, Score: 50}},
		CoachingReport{Summary: "nothing notable"},
	)

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	want := `"coaching":{"strengths":[],"missedOpportunities":[],"summary":"nothing notable"}`
	if !strings.Contains(string(data), want) {
		t.Errorf("Expected %s in %s", want, data)
	}
}

func TestSpeakerValid(t *testing.T) {
	if !SpeakerSalesperson.Valid() || !SpeakerProspect.Valid() {
		t.Error("Known speakers should be valid")
	}
	if Speaker("Customer").Valid() {
		t.Error("Customer is not a contract speaker label")
	}
}

func TestNewAnalysisReport(t *testing.T) {
	before := time.Now().UTC()
	report := NewAnalysisReport(sampleResult(), ReportMetadata{
		Model:         "gemini-3-flash-preview",
		MediaType:     "audio/mpeg",
		AudioBytes:    1024,
		RubricName:    "archival-designs-sop",
		RubricVersion: "2025.1",
		SchemaVersion: "call-qa.v1",
	})

	if _, err := uuid.Parse(report.ID); err != nil {
		t.Errorf("Expected report ID to be a UUID, got %s", report.ID)
	}
	if report.CreatedAt.Before(before) {
		t.Error("Expected CreatedAt to be set to now")
	}
	if report.RubricVersion != "2025.1" {
		t.Errorf("Expected rubric version 2025.1, got %s", report.RubricVersion)
	}
	if report.Result == nil {
		t.Error("Expected result to be attached")
	}
}
