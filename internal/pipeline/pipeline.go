package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one unit of an ordered multi-stage drafting pipeline.
// ID is the step's identity and must be unique within a pipeline.
type Step struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Order  int    `yaml:"order" json:"order"`
	Input  string `yaml:"input,omitempty" json:"input,omitempty"`
	Actor  string `yaml:"actor,omitempty" json:"actor,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Pipeline is an ordered set of steps executed against one input.
// RunID identifies a pipeline persisted on the execution service; when it is
// empty the pipeline can only run in inline (buffered) mode or locally.
type Pipeline struct {
	Name    string `yaml:"name"`
	Persona string `yaml:"persona,omitempty"`
	RunID   string `yaml:"run_id,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Load reads and validates a pipeline definition from a YAML file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a pipeline definition from YAML bytes.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(p.Steps, func(i, j int) bool {
		return p.Steps[i].Order < p.Steps[j].Order
	})
	return &p, nil
}

// Validate checks the pipeline for structural problems.
func (p *Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline %q has no steps", p.Name)
	}
	seen := make(map[string]bool, len(p.Steps))
	for i, s := range p.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("step %d has an empty id", i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Order < 1 {
			return fmt.Errorf("step %q has order %d, must be >= 1", s.ID, s.Order)
		}
	}
	return nil
}

// StepIDs returns the ids of all steps in pipeline order.
func (p *Pipeline) StepIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID
	}
	return ids
}
