// Package validator turns the model's raw response text into a typed AnalysisResult.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
	"github.com/satriahrh/callqa/internal/schema"
)

// MM:SS with up to three minute digits so calls over 99 minutes still fit
var clockPattern = regexp.MustCompile(`^(\d{1,3}):([0-5]\d)$`)

// Validator parses responses against a schema contract
type Validator struct {
	contract *genai.Schema
}

// New creates a validator bound to the current schema contract
func New() *Validator {
	return &Validator{contract: schema.Contract()}
}

// Parse decodes rawText, checks it against the contract and the content
// rules, and returns the result. Every failure is a malformed_response error
// that carries rawText.
func (v *Validator) Parse(rawText string) (*entities.AnalysisResult, error) {
	doc, err := decodeStrict(rawText)
	if err != nil {
		return nil, domain.MalformedResponse(domain.ReasonInvalidJSON, rawText, err, "response is not a valid JSON document")
	}

	if err := schema.Check(v.contract, doc); err != nil {
		return nil, domain.MalformedResponse(domain.ReasonSchemaViolation, rawText, err, "response does not match schema %s", schema.Version)
	}

	// Built from the checked document, never from rawText again, so only
	// the values the schema walk saw can reach the result
	wire, err := fromDocument(doc)
	if err != nil {
		return nil, domain.MalformedResponse(domain.ReasonSchemaViolation, rawText, err, "response does not match schema %s", schema.Version)
	}

	if len(wire.Transcript) == 0 {
		return nil, domain.MalformedResponse(domain.ReasonEmptyTranscript, rawText, nil, "transcript is empty")
	}
	if len(wire.Sentiment) == 0 {
		return nil, domain.MalformedResponse(domain.ReasonEmptySentiment, rawText, nil, "sentiment is empty")
	}

	if err := checkTranscript(wire.Transcript); err != nil {
		return nil, domain.MalformedResponse(domain.ReasonInvalidTranscript, rawText, err, "transcript is invalid")
	}
	if err := checkSentiment(wire.Sentiment); err != nil {
		return nil, domain.MalformedResponse(domain.ReasonInvalidSentiment, rawText, err, "sentiment is invalid")
	}
	if strings.TrimSpace(wire.Coaching.Summary) == "" {
		return nil, domain.MalformedResponse(domain.ReasonInvalidCoaching, rawText, nil, "coaching summary is empty")
	}

	return entities.NewAnalysisResult(wire.Transcript, wire.Sentiment, wire.Coaching), nil
}

type analysisResponse struct {
	Transcript []entities.TranscriptEntry
	Sentiment  []entities.SentimentPoint
	Coaching   entities.CoachingReport
}

func fromDocument(doc any) (analysisResponse, error) {
	var wire analysisResponse
	root, ok := doc.(map[string]any)
	if !ok {
		return wire, errors.New("expected object")
	}

	for i, item := range list(root["transcript"]) {
		e := object(item)
		if e == nil {
			return wire, fmt.Errorf("transcript[%d]: expected object", i)
		}
		wire.Transcript = append(wire.Transcript, entities.TranscriptEntry{
			Speaker:   entities.Speaker(text(e["speaker"])),
			Text:      text(e["text"]),
			Timestamp: text(e["timestamp"]),
		})
	}

	for i, item := range list(root["sentiment"]) {
		p := object(item)
		if p == nil {
			return wire, fmt.Errorf("sentiment[%d]: expected object", i)
		}
		seconds, err := number(p["seconds"])
		if err != nil {
			return wire, fmt.Errorf("sentiment[%d].seconds: %w", i, err)
		}
		score, err := number(p["score"])
		if err != nil {
			return wire, fmt.Errorf("sentiment[%d].score: %w", i, err)
		}
		wire.Sentiment = append(wire.Sentiment, entities.SentimentPoint{
			Time:    text(p["time"]),
			Seconds: seconds,
			Score:   score,
		})
	}

	coaching := object(root["coaching"])
	if coaching == nil {
		return wire, errors.New("coaching: expected object")
	}
	wire.Coaching = entities.CoachingReport{
		Strengths:           texts(coaching["strengths"]),
		MissedOpportunities: texts(coaching["missedOpportunities"]),
		Summary:             text(coaching["summary"]),
	}
	return wire, nil
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func texts(v any) []string {
	var out []string
	for _, item := range list(v) {
		out = append(out, text(item))
	}
	return out
}

func number(v any) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.New("expected number")
	}
	return n.Float64()
}

func decodeStrict(rawText string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(rawText))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON document")
	}
	return doc, nil
}

func checkTranscript(entries []entities.TranscriptEntry) error {
	previous := -1
	for i, e := range entries {
		if !e.Speaker.Valid() {
			return fmt.Errorf("transcript[%d].speaker %q is not a known speaker", i, e.Speaker)
		}
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("transcript[%d].text is empty", i)
		}
		at, err := ParseClock(e.Timestamp)
		if err != nil {
			return fmt.Errorf("transcript[%d].timestamp: %w", i, err)
		}
		if at < previous {
			return fmt.Errorf("transcript[%d].timestamp %s is earlier than the previous entry", i, e.Timestamp)
		}
		previous = at
	}
	return nil
}

func checkSentiment(points []entities.SentimentPoint) error {
	for i, p := range points {
		if _, err := ParseClock(p.Time); err != nil {
			return fmt.Errorf("sentiment[%d].time: %w", i, err)
		}
		if p.Seconds < 0 {
			return fmt.Errorf("sentiment[%d].seconds %v is negative", i, p.Seconds)
		}
		if p.Score < 0 || p.Score > 100 {
			return fmt.Errorf("sentiment[%d].score %v is outside [0, 100]", i, p.Score)
		}
		if i > 0 && p.Seconds <= points[i-1].Seconds {
			return fmt.Errorf("sentiment[%d].seconds %v does not increase", i, p.Seconds)
		}
	}
	return nil
}

// ParseClock converts an MM:SS label into seconds
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q is not in MM:SS format", s)
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	return minutes*60 + seconds, nil
}
