package entities

import (
	"encoding/json"
	"slices"
)

// Speaker identifies who is talking in a transcript entry
type Speaker string

const (
	SpeakerSalesperson Speaker = "Salesperson"
	SpeakerProspect    Speaker = "Prospect"
)

// Speakers lists every valid speaker label in contract order
var Speakers = []Speaker{SpeakerSalesperson, SpeakerProspect}

// Valid reports whether s is one of the known speaker labels
func (s Speaker) Valid() bool {
	return slices.Contains(Speakers, s)
}

// TranscriptEntry is one diarized utterance
type TranscriptEntry struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"` // MM:SS
}

// SentimentPoint is one sample of prospect engagement over the call
type SentimentPoint struct {
	Time    string  `json:"time"`    // MM:SS label
	Seconds float64 `json:"seconds"` // absolute offset from call start
	Score   float64 `json:"score"`   // 0-100
}

// CoachingReport is the SOP evaluation of the salesperson
type CoachingReport struct {
	Strengths           []string `json:"strengths"`
	MissedOpportunities []string `json:"missedOpportunities"`
	Summary             string   `json:"summary"`
}

func (c CoachingReport) clone() CoachingReport {
	return CoachingReport{
		Strengths:           cloneStrings(c.Strengths),
		MissedOpportunities: cloneStrings(c.MissedOpportunities),
		Summary:             c.Summary,
	}
}

// AnalysisResult is the validated outcome of one call analysis.
// It is immutable: the constructor copies its inputs and every accessor
// returns a copy.
type AnalysisResult struct {
	transcript []TranscriptEntry
	sentiment  []SentimentPoint
	coaching   CoachingReport
}

// NewAnalysisResult builds a result from already validated parts
func NewAnalysisResult(transcript []TranscriptEntry, sentiment []SentimentPoint, coaching CoachingReport) *AnalysisResult {
	return &AnalysisResult{
		transcript: slices.Clone(transcript),
		sentiment:  slices.Clone(sentiment),
		coaching:   coaching.clone(),
	}
}

// Transcript returns the diarized transcript in speaking order
func (r *AnalysisResult) Transcript() []TranscriptEntry {
	return slices.Clone(r.transcript)
}

// Sentiment returns the engagement curve ordered by Seconds
func (r *AnalysisResult) Sentiment() []SentimentPoint {
	return slices.Clone(r.sentiment)
}

// Coaching returns the SOP coaching report
func (r *AnalysisResult) Coaching() CoachingReport {
	return r.coaching.clone()
}

type analysisResultJSON struct {
	Transcript []TranscriptEntry `json:"transcript"`
	Sentiment  []SentimentPoint  `json:"sentiment"`
	Coaching   CoachingReport    `json:"coaching"`
}

// MarshalJSON renders the result in the same shape the model was asked to return
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(analysisResultJSON{
		Transcript: r.transcript,
		Sentiment:  r.sentiment,
		Coaching:   r.coaching,
	})
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
