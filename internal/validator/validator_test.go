package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
)

const validResponse = `{
  "transcript": [
    {"speaker": "Salesperson", "text": "Thanks for calling Archival Designs, this is Paulo. Are you calling about a specific plan?", "timestamp": "00:00"},
    {"speaker": "Prospect", "text": "Yes, plan 42031, but I need it smaller.", "timestamp": "00:06"},
    {"speaker": "Salesperson", "text": "Our Modification Request form gets you a free estimate in 1-3 business days.", "timestamp": "00:06"}
  ],
  "sentiment": [
    {"time": "00:00", "seconds": 0, "score": 50},
    {"time": "00:06", "seconds": 6, "score": 45.5},
    {"time": "00:20", "seconds": 20, "score": 78}
  ],
  "coaching": {
    "strengths": ["Correct brand greeting", "Routed the downsize request to the Mod Request form"],
    "missedOpportunities": ["Did not ask for target square footage"],
    "summary": "Archival Designs, plan 42031, downsize request routed to the Modification Request form."
  }
}`

func TestParseValidResponse(t *testing.T) {
	result, err := New().Parse(validResponse)
	require.NoError(t, err)

	transcript := result.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, entities.TranscriptEntry{
		Speaker:   entities.SpeakerProspect,
		Text:      "Yes, plan 42031, but I need it smaller.",
		Timestamp: "00:06",
	}, transcript[1])

	sentiment := result.Sentiment()
	require.Len(t, sentiment, 3)
	assert.Equal(t, entities.SentimentPoint{Time: "00:06", Seconds: 6, Score: 45.5}, sentiment[1])

	coaching := result.Coaching()
	assert.Len(t, coaching.Strengths, 2)
	assert.Equal(t, []string{"Did not ask for target square footage"}, coaching.MissedOpportunities)
	assert.Contains(t, coaching.Summary, "plan 42031")
}

func TestParseAcceptsEmptyCoachingLists(t *testing.T) {
	raw := replaceCoaching(`{"strengths": [], "missedOpportunities": [], "summary": "Standard Homes, no plan discussed, caller hung up."}`)

	result, err := New().Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, result.Coaching().Strengths)
	assert.Empty(t, result.Coaching().MissedOpportunities)
}

func TestParseAcceptsFewSentimentPoints(t *testing.T) {
	raw := strings.Replace(validResponse, `{"time": "00:06", "seconds": 6, "score": 45.5},
    {"time": "00:20", "seconds": 20, "score": 78}`, `{"time": "00:06", "seconds": 6, "score": 45.5}`, 1)

	result, err := New().Parse(raw)
	require.NoError(t, err)
	assert.Len(t, result.Sentiment(), 2)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason domain.Reason
	}{
		{"empty string", "", domain.ReasonInvalidJSON},
		{"not json", "Sorry, I can't help with that.", domain.ReasonInvalidJSON},
		{"truncated", validResponse[:len(validResponse)/2], domain.ReasonInvalidJSON},
		{"markdown fenced", "```json\n" + validResponse + "\n```", domain.ReasonInvalidJSON},
		{"trailing document", validResponse + "{}", domain.ReasonInvalidJSON},
		{"top level array", `[]`, domain.ReasonSchemaViolation},
		{"missing sentiment", `{"transcript": [], "coaching": {}}`, domain.ReasonSchemaViolation},
		{
			"score as string",
			strings.Replace(validResponse, `"score": 78`, `"score": "78"`, 1),
			domain.ReasonSchemaViolation,
		},
		{
			"seconds as string",
			strings.Replace(validResponse, `"seconds": 20`, `"seconds": "20"`, 1),
			domain.ReasonSchemaViolation,
		},
		{
			"unknown speaker",
			strings.Replace(validResponse, `"speaker": "Prospect"`, `"speaker": "Customer"`, 1),
			domain.ReasonSchemaViolation,
		},
		{
			"case-variant speaker key",
			strings.Replace(validResponse, `"speaker": "Prospect", "text"`, `"speaker": "Prospect", "SPEAKER": "Robot", "text"`, 1),
			domain.ReasonSchemaViolation,
		},
		{
			"case-variant summary key",
			replaceCoaching(`{"strengths": [], "missedOpportunities": [], "summary": "Archival Designs, plan 42031.", "Summary": "   "}`),
			domain.ReasonSchemaViolation,
		},
		{
			"empty transcript",
			`{"transcript": [], "sentiment": [{"time": "00:00", "seconds": 0, "score": 50}], "coaching": {"strengths": [], "missedOpportunities": [], "summary": "x"}}`,
			domain.ReasonEmptyTranscript,
		},
		{
			"empty sentiment",
			`{"transcript": [{"speaker": "Prospect", "text": "hi", "timestamp": "00:00"}], "sentiment": [], "coaching": {"strengths": [], "missedOpportunities": [], "summary": "x"}}`,
			domain.ReasonEmptySentiment,
		},
		{
			"blank transcript text",
			strings.Replace(validResponse, `"text": "Yes, plan 42031, but I need it smaller."`, `"text": "  "`, 1),
			domain.ReasonInvalidTranscript,
		},
		{
			"bad timestamp format",
			strings.Replace(validResponse, `"timestamp": "00:06"`, `"timestamp": "6s"`, 1),
			domain.ReasonInvalidTranscript,
		},
		{
			"decreasing timestamps",
			strings.Replace(validResponse, `"text": "Our Modification Request form gets you a free estimate in 1-3 business days.", "timestamp": "00:06"`, `"text": "Our Modification Request form gets you a free estimate in 1-3 business days.", "timestamp": "00:03"`, 1),
			domain.ReasonInvalidTranscript,
		},
		{
			"non-increasing seconds",
			strings.Replace(validResponse, `"seconds": 20`, `"seconds": 6`, 1),
			domain.ReasonInvalidSentiment,
		},
		{
			"bad sentiment time",
			strings.Replace(validResponse, `"time": "00:20"`, `"time": "0:20:00"`, 1),
			domain.ReasonInvalidSentiment,
		},
		{
			"blank summary",
			replaceCoaching(`{"strengths": [], "missedOpportunities": [], "summary": ""}`),
			domain.ReasonInvalidCoaching,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Parse(tt.raw)
			require.Error(t, err)
			assert.Nil(t, result)

			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
			assert.Equal(t, tt.reason, domain.ReasonOf(err))
			assert.Equal(t, tt.raw, domain.RawOf(err), "raw text must be retained for diagnostics")
		})
	}
}

func TestCheckTranscriptRejectsUnknownSpeaker(t *testing.T) {
	err := checkTranscript([]entities.TranscriptEntry{
		{Speaker: entities.SpeakerSalesperson, Text: "hi", Timestamp: "00:01"},
		{Speaker: "Robot", Text: "beep", Timestamp: "00:02"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript[1].speaker")
}

func TestParseKeepsCheckedValues(t *testing.T) {
	result, err := New().Parse(validResponse)
	require.NoError(t, err)

	for _, e := range result.Transcript() {
		assert.True(t, e.Speaker.Valid(), "speaker %q", e.Speaker)
	}
	assert.Equal(t, 45.5, result.Sentiment()[1].Score)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"01:30", 90, true},
		{"9:05", 545, true},
		{"125:59", 7559, true},
		{"00:60", 0, false},
		{"1:2", 0, false},
		{"", 0, false},
		{"01:30.5", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func replaceCoaching(coaching string) string {
	i := strings.Index(validResponse, `"coaching": {`)
	return validResponse[:i] + `"coaching": ` + coaching + "\n}"
}
