package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt ParsedPrompt
		want   Category
	}{
		{
			name:   "infrastructure wins on count",
			prompt: ParsedPrompt{Title: "Database schema", Objective: "Set up the database server", Body: "- Create the user table"},
			want:   CategoryInfrastructure,
		},
		{
			name:   "ux",
			prompt: ParsedPrompt{Title: "Dashboard UI", Objective: "Design the user interface", Outcome: "A clear user experience"},
			want:   CategoryUX,
		},
		{
			name:   "integration",
			prompt: ParsedPrompt{Title: "Payments API", Body: "- Integrate the external payment service through its API"},
			want:   CategoryIntegration,
		},
		{
			name:   "optimization",
			prompt: ParsedPrompt{Title: "Caching", Body: "- Optimize queries to improve performance"},
			want:   CategoryOptimization,
		},
		{
			name:   "tie goes to higher priority",
			prompt: ParsedPrompt{Title: "User API"},
			want:   CategoryUX,
		},
		{
			name:   "no hits is core",
			prompt: ParsedPrompt{Title: "Tags", Body: "- Add tags to tasks"},
			want:   CategoryCore,
		},
		{
			name:   "keywords match whole words only",
			prompt: ParsedPrompt{Title: "Build guide", Body: "- Rapid setup"},
			want:   CategoryCore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizePrompt(tt.prompt))
		})
	}
}

const mixedStage = `Prompt 1: Performance Tuning
Objective: Optimize the slow pages.
Prompt:
- Improve performance of the list
Outcome: Faster pages.

Prompt 2: Login Screen
Objective: Design the user interface for sign in.
Prompt:
- Create the form
Outcome: Users can sign in.

Prompt 3: Tasks
Objective: Core task handling.
Prompt:
- Implement the essential task model
Outcome: Tasks exist.

Prompt 4: Sign Up Screen
Objective: Design the user flow for new accounts.
Prompt:
- Create the form
Outcome: Users can register.
`

func TestCategorizeOrdering(t *testing.T) {
	prompts := Categorize(mixedStage)
	require.Len(t, prompts, 4)

	var got []string
	for _, p := range prompts {
		got = append(got, string(p.Category)+":"+p.Title)
	}
	want := []string{
		"core:Tasks",
		"ux:Login Screen",
		"ux:Sign Up Screen",
		"optimization:Performance Tuning",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Categorize() order mismatch (-want +got):\n%s", diff)
	}

	// Original ordinals are kept.
	assert.Equal(t, 3, prompts[0].Ordinal)
	assert.Equal(t, 2, prompts[1].Ordinal)
	assert.Equal(t, 4, prompts[2].Ordinal)
}

func TestCategorizeIdempotent(t *testing.T) {
	first := Categorize(mixedStage)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Categorize(mixedStage)); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}
