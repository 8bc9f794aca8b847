package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantPreamble string
		wantNumbers  []string
	}{
		{
			name:         "plain delimiters",
			input:        "intro\nPrompt 1: A\nbody\nPrompt 2: B\nbody",
			wantPreamble: "intro\n",
			wantNumbers:  []string{"1", "2"},
		},
		{
			name:         "bracketed delimiters",
			input:        "Prompt [1]: A\nPrompt [2]: B\nPrompt [3]: C",
			wantPreamble: "",
			wantNumbers:  []string{"1", "2", "3"},
		},
		{
			name:         "case insensitive",
			input:        "PROMPT 1: A\nprompt 2: B",
			wantNumbers:  []string{"1", "2"},
			wantPreamble: "",
		},
		{
			name:         "markdown markers belong to the header",
			input:        "intro\n## Prompt 1: A\nbody\n**Prompt 2: B**\nbody",
			wantPreamble: "intro\n",
			wantNumbers:  []string{"1", "2"},
		},
		{
			name:         "inline reference is not a delimiter",
			input:        "Prompt 1: A\nReuse the list from Prompt 2: B.\nPrompt 2: B\nbody",
			wantPreamble: "",
			wantNumbers:  []string{"1", "2"},
		},
		{
			name:         "no delimiter",
			input:        "just some text",
			wantPreamble: "just some text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preamble, segments := SplitSegments(tt.input)
			assert.Equal(t, tt.wantPreamble, preamble)

			var numbers []string
			for _, s := range segments {
				numbers = append(numbers, s.Number)
			}
			assert.Equal(t, tt.wantNumbers, numbers)

			// Splitting is lossless.
			assert.Equal(t, tt.input, JoinSegments(preamble, segments))
		})
	}
}

func TestParsePrompts(t *testing.T) {
	text := stageText(3, true)
	prompts := ParsePrompts(text)
	require.Len(t, prompts, 3)

	first := prompts[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.Equal(t, "Brand and Purpose", first.Title)
	assert.Contains(t, first.Objective, "brand identity")
	assert.Contains(t, first.Body, "- Create a style guide")
	assert.Contains(t, first.Body, "- List the core features")
	assert.Equal(t, "A foundation document that every later prompt can reference.", first.Outcome)
	assert.True(t, first.WellFormed())

	assert.Equal(t, 3, prompts[2].Ordinal)
	assert.Equal(t, "Task Screen 3", prompts[2].Title)
}

func TestParsePromptsMarkdownLabels(t *testing.T) {
	text := "**Prompt 1: Login**\n**Objective:** Let users sign in\n**Prompt:**\n1. Create the form\n2. Validate input\n**Outcome:** Users can log in"
	prompts := ParsePrompts(text)
	require.Len(t, prompts, 1)

	p := prompts[0]
	assert.Equal(t, "Login", p.Title)
	assert.Equal(t, "Let users sign in", p.Objective)
	assert.Equal(t, "1. Create the form\n2. Validate input", p.Body)
	assert.Equal(t, "Users can log in", p.Outcome)
}

func TestParsePromptsMissingFields(t *testing.T) {
	prompts := ParsePrompts("Prompt 1: Only a title\nsome stray text")
	require.Len(t, prompts, 1)
	assert.Equal(t, "Only a title", prompts[0].Title)
	assert.False(t, prompts[0].WellFormed())
}
