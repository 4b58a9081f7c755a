package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse([]byte(`
name: blog-draft
persona: editor
run_id: abc-123
steps:
  - id: outline
    name: Outline
    order: 2
    input: Produce an outline.
  - id: research
    name: Research
    order: 1
    input: Collect supporting facts.
`))
	require.NoError(t, err)

	assert.Equal(t, "blog-draft", p.Name)
	assert.Equal(t, "editor", p.Persona)
	assert.Equal(t, "abc-123", p.RunID)
	// Steps come back sorted by order.
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "research", p.Steps[0].ID)
	assert.Equal(t, "outline", p.Steps[1].ID)
}

func TestParseRejectsBadPipelines(t *testing.T) {
	cases := map[string]string{
		"no steps":     "name: empty\nsteps: []",
		"empty id":     "name: x\nsteps:\n  - id: \"\"\n    name: A\n    order: 1",
		"duplicate id": "name: x\nsteps:\n  - id: a\n    name: A\n    order: 1\n  - id: a\n    name: B\n    order: 2",
		"zero order":   "name: x\nsteps:\n  - id: a\n    name: A\n    order: 0",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestStepIDs(t *testing.T) {
	p := &Pipeline{Steps: []Step{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, []string{"a", "b"}, p.StepIDs())
}
