// Package prompt turns an SOP rubric into the instruction text sent with the call audio.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rubrics/archival_designs.yaml
var defaultRubricYAML []byte

// Rubric is the business policy a call is evaluated against. It is data:
// swapping the file changes the evaluation without touching code.
type Rubric struct {
	Name    string   `yaml:"name" json:"name"`
	Version string   `yaml:"version" json:"version"`
	Agent   string   `yaml:"agent" json:"agent"`
	Brands  []string `yaml:"brands" json:"brands"`
	Text    string   `yaml:"text" json:"-"`
}

// Validate checks the fields the prompt and the report provenance rely on
func (r Rubric) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("rubric name is required"))
	}
	if strings.TrimSpace(r.Version) == "" {
		errs = append(errs, errors.New("rubric version is required"))
	}
	if strings.TrimSpace(r.Text) == "" {
		errs = append(errs, errors.New("rubric text is required"))
	}
	return errors.Join(errs...)
}

// ParseRubric decodes and validates a YAML rubric document
func ParseRubric(data []byte) (Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("failed to parse rubric: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rubric{}, fmt.Errorf("invalid rubric: %w", err)
	}
	return r, nil
}

// LoadRubric reads a rubric from a YAML file
func LoadRubric(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("failed to read rubric %s: %w", path, err)
	}
	return ParseRubric(data)
}

// DefaultRubric returns the built-in Archival Designs sales SOP
func DefaultRubric() Rubric {
	r, err := ParseRubric(defaultRubricYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rubric is invalid: %v", err))
	}
	return r
}
