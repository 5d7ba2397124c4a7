package prompt

import (
	"strings"
)

const defaultAgent = "Salesperson"

// Builder assembles the natural-language prompt for one analysis
type Builder struct{}

// NewBuilder creates a prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build concatenates the rubric with the fixed task instruction.
// The output depends only on the rubric.
func (b *Builder) Build(r Rubric) string {
	agent := strings.TrimSpace(r.Agent)
	if agent == "" {
		agent = defaultAgent
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(r.Text))
	sb.WriteString("\n\n")
	sb.WriteString("Analyze the attached audio file of a sales call between the agent (")
	sb.WriteString(agent)
	sb.WriteString(") and a Customer.\n\n")
	sb.WriteString("Perform the following tasks:\n")
	sb.WriteString("1. Generate a diarized transcript. Label the agent as \"Salesperson\" and the customer as \"Prospect\". Timestamps use MM:SS.\n")
	sb.WriteString("2. Analyze the sentiment/engagement of the Customer throughout the call as scores from 0 to 100, ordered by time.\n")
	sb.WriteString("3. Create a coaching card evaluating ")
	sb.WriteString(agent)
	sb.WriteString(" STRICTLY against the provided SOP rules.\n\n")
	sb.WriteString("Return the data strictly in JSON format matching the provided schema.")
	return sb.String()
}
