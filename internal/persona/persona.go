package persona

import (
	"quill/internal/pipeline"
)

// Persona is a named system-prompt profile applied across a pipeline's
// steps. Provocation is the critique prompt used by `quill provoke`.
type Persona struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt"`
	Provocation  string `yaml:"provocation"`
}

// Builtin returns the personas that ship with quill. User personas with
// the same name shadow these.
func Builtin() []Persona {
	return []Persona{
		{
			Name:         "editor",
			Description:  "Line editor focused on clarity and flow",
			SystemPrompt: "You are an experienced line editor. Improve clarity, flow, and concision while preserving the author's voice and meaning.",
			Provocation:  "Critique this draft as a line editor: point out unclear passages, weak transitions, and wordiness. Quote the offending text for each point.",
		},
		{
			Name:         "skeptic",
			Description:  "Hostile reviewer hunting for weak arguments",
			SystemPrompt: "You are a skeptical reviewer. Challenge every claim that lacks support and surface unstated assumptions.",
			Provocation:  "Attack this draft's argument: list every claim that is asserted without evidence, every assumption the reader must accept, and the strongest counterargument to the main thesis.",
		},
		{
			Name:         "simplifier",
			Description:  "Explains like the reader knows nothing",
			SystemPrompt: "You write for an intelligent reader with zero background in the subject. Prefer short sentences and concrete examples.",
			Provocation:  "Identify every term, concept, or leap in this draft that a newcomer would stumble on, and suggest a plainer phrasing for each.",
		},
	}
}

// ProvocationPipeline builds the one-step critique pipeline for a persona.
// The step's input is the persona's provocation prompt; the document under
// critique becomes the run input.
func ProvocationPipeline(p Persona) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name:    "provoke-" + p.Name,
		Persona: p.Name,
		Steps: []pipeline.Step{
			{
				ID:    "provoke",
				Name:  "Provocation by " + p.Name,
				Order: 1,
				Input: p.Provocation,
				Actor: p.Name,
			},
		},
	}
}
