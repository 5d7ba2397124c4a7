package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// RubricResponse describes the rubric and schema a deployment evaluates calls with
type RubricResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Agent         string   `json:"agent,omitempty"`
	Brands        []string `json:"brands,omitempty"`
	SchemaVersion string   `json:"schema_version"`
}
