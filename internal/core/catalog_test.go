package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	stages := DefaultCatalog().Stages()
	require.Len(t, stages, StageCount)

	want := []struct {
		title   string
		typ     StageType
		prompts int
	}{
		{"Core Features", StageTypeOverview, 5},
		{"User Interface", StageTypeRequirements, 5},
		{"Data Management", StageTypeRequirements, 5},
		{"Performance", StageTypeBudget, 4},
		{"Testing", StageTypeTimeline, 4},
	}
	for i, w := range want {
		s := stages[i]
		assert.Equal(t, i+1, s.Order)
		assert.Equal(t, w.title, s.Title)
		assert.Equal(t, w.typ, s.Type)
		assert.Equal(t, w.prompts, s.MaxPrompts)
		assert.NotEmpty(t, s.PromptTemplate)
		assert.NotEmpty(t, s.RelevantSections)
	}
	assert.True(t, stages[0].IsFoundation())
	assert.False(t, stages[1].IsFoundation())
	assert.Equal(t, "Stage 2: User Interface", stages[1].Label())
}

func TestCatalogStage(t *testing.T) {
	c := DefaultCatalog()

	s, err := c.Stage(3)
	require.NoError(t, err)
	assert.Equal(t, "Data Management", s.Title)

	for _, n := range []int{0, 6, -1} {
		_, err := c.Stage(n)
		assert.True(t, errors.Is(err, ErrUnknownStage), "stage %d", n)
	}
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := DefaultCatalog()
	s, err := c.Stage(1)
	require.NoError(t, err)

	s.Title = "changed"
	s.RelevantSections[0] = "changed"

	again, err := c.Stage(1)
	require.NoError(t, err)
	assert.Equal(t, "Core Features", again.Title)
	assert.Equal(t, "overview", again.RelevantSections[0])
}

func TestExpectedCount(t *testing.T) {
	tmpl := StageTemplate{MaxPrompts: 4}
	tests := []struct {
		override int
		want     int
	}{
		{0, 4},
		{7, 7},
		{-3, 4},
		{25, MaxPromptCount},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpectedCount(tmpl, tt.override), "override %d", tt.override)
	}
	assert.Equal(t, MinPromptCount, ExpectedCount(StageTemplate{}, 0))
}
