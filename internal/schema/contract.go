// Package schema holds the structured-output contract sent to the model and
// the checker that holds responses to it.
package schema

import (
	"google.golang.org/genai"

	"github.com/satriahrh/callqa/domain/entities"
)

// Version identifies the result shape. Bump it together with the validator
// whenever Contract changes.
const Version = "call-qa.v1"

// Contract returns the response schema for a call analysis. A fresh value is
// returned each time so callers may not mutate a shared instance.
func Contract() *genai.Schema {
	speakers := make([]string, 0, len(entities.Speakers))
	for _, s := range entities.Speakers {
		speakers = append(speakers, string(s))
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Required:         []string{"transcript", "sentiment", "coaching"},
		PropertyOrdering: []string{"transcript", "sentiment", "coaching"},
		Properties: map[string]*genai.Schema{
			"transcript": {
				Type:        genai.TypeArray,
				Description: "Diarized transcript of the whole call in speaking order.",
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Required:         []string{"speaker", "text", "timestamp"},
					PropertyOrdering: []string{"speaker", "text", "timestamp"},
					Properties: map[string]*genai.Schema{
						"speaker": {
							Type:        genai.TypeString,
							Enum:        speakers,
							Description: "Salesperson for the agent, Prospect for the customer.",
						},
						"text":      {Type: genai.TypeString},
						"timestamp": {Type: genai.TypeString, Description: "Format MM:SS"},
					},
				},
			},
			"sentiment": {
				Type:        genai.TypeArray,
				Description: "A list of roughly 15-20 data points representing engagement/sentiment over the duration of the call.",
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Required:         []string{"time", "seconds", "score"},
					PropertyOrdering: []string{"time", "seconds", "score"},
					Properties: map[string]*genai.Schema{
						"time": {Type: genai.TypeString, Description: "Format MM:SS"},
						"seconds": {
							Type:        genai.TypeNumber,
							Description: "Time in absolute seconds",
							Minimum:     genai.Ptr(0.0),
						},
						"score": {
							Type:        genai.TypeNumber,
							Description: "Sentiment score from 0 to 100",
							Minimum:     genai.Ptr(0.0),
							Maximum:     genai.Ptr(100.0),
						},
					},
				},
			},
			"coaching": {
				Type:             genai.TypeObject,
				Required:         []string{"strengths", "missedOpportunities", "summary"},
				PropertyOrdering: []string{"strengths", "missedOpportunities", "summary"},
				Properties: map[string]*genai.Schema{
					"strengths": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "Specific things the agent did well based on SOP.",
					},
					"missedOpportunities": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "Specific SOP violations or missed cues.",
					},
					"summary": {
						Type:        genai.TypeString,
						Description: "A brief executive summary identifying Brand, Plan Number, and outcome.",
					},
				},
			},
		},
	}
}
