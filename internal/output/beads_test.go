package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhabedank/stageprompt/internal/core"
)

// fakeBd answers bd commands with sequential issue IDs and records every call.
type fakeBd struct {
	calls    [][]string
	next     int
	failOn   string // title whose create fails
	depFails bool
}

func (f *fakeBd) run(dir string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	switch args[0] {
	case "create":
		if args[1] == f.failOn {
			return nil, errors.New("bd create failed: boom")
		}
		f.next++
		return []byte(fmt.Sprintf("Created issue: demo-a%02d\n", f.next)), nil
	case "dep":
		if f.depFails {
			return nil, errors.New("bd dep failed")
		}
		return []byte("ok\n"), nil
	}
	return []byte("bd 0.9.0\n"), nil
}

func (f *fakeBd) creates() [][]string {
	var out [][]string
	for _, c := range f.calls {
		if c[0] == "create" {
			out = append(out, c)
		}
	}
	return out
}

func newFakeBeads(config Config, bd *fakeBd) *BeadsAdapter {
	a := NewBeadsAdapter(config)
	a.run = bd.run
	return a
}

func TestBeadsExportCreatesEpicsAndTasks(t *testing.T) {
	bd := &fakeBd{}
	config := Config{Writer: &bytes.Buffer{}, IncludeBody: true}

	result, err := newFakeBeads(config, bd).Export(sampleRecords(), config)
	require.NoError(t, err)

	creates := bd.creates()
	require.Len(t, creates, 5)
	assert.Equal(t, "Stage 1: Core Features", creates[0][1])
	assert.Equal(t, "Brand and Purpose", creates[1][1])
	assert.Equal(t, "Database Schema", creates[2][1])
	assert.Equal(t, "Stage 2: User Interface", creates[3][1])
	assert.Equal(t, "Dashboard Layout", creates[4][1])

	assert.Equal(t, 2, result.Stats.Stages)
	assert.Equal(t, 3, result.Stats.Prompts)
	assert.Empty(t, result.Failed)

	// Three parent-child links plus stage 1 blocking stage 2.
	assert.Equal(t, 4, result.Stats.Dependencies)
	assert.Contains(t, result.Dependencies, Dependency{From: "demo-a01", To: "demo-a04", Type: "blocks"})
	assert.Contains(t, result.Dependencies, Dependency{From: "demo-a04", To: "demo-a05", Type: "parent-child"})

	assert.Equal(t, "demo-a01", result.Created[1].ParentExternalID)
	assert.Equal(t, 3, result.Created[4].GlobalNumber)
}

func TestBeadsTaskDescriptionAndPriority(t *testing.T) {
	bd := &fakeBd{}
	config := Config{Writer: &bytes.Buffer{}, IncludeBody: false}

	_, err := newFakeBeads(config, bd).Export(sampleRecords(), config)
	require.NoError(t, err)

	task := bd.creates()[2] // Database Schema
	assert.Equal(t, []string{
		"create", "Database Schema",
		"--description", "Objective for Database Schema\n\n**Category:** infrastructure",
		"--priority", "1",
		"--type", "task",
	}, task)
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		category core.Category
		want     int
	}{
		{core.CategoryCore, 0},
		{core.CategoryInfrastructure, 1},
		{core.CategoryUX, 2},
		{core.CategoryIntegration, 3},
		{core.CategoryOptimization, 3},
		{core.Category("other"), 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, priorityFor(tt.category))
		})
	}
}

func TestBeadsExportRecordsFailures(t *testing.T) {
	bd := &fakeBd{failOn: "Database Schema", depFails: true}
	config := Config{Writer: &bytes.Buffer{}}

	result, err := newFakeBeads(config, bd).Export(sampleRecords(), config)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "prompt", result.Failed[0].Type)
	assert.Equal(t, "Database Schema", result.Failed[0].Title)
	assert.Equal(t, 2, result.Stats.Prompts)
	assert.Zero(t, result.Stats.Dependencies)
}

func TestBeadsExportBadOutput(t *testing.T) {
	config := Config{Writer: &bytes.Buffer{}}
	a := NewBeadsAdapter(config)
	a.run = func(dir string, args ...string) ([]byte, error) { return []byte("!!!"), nil }

	result, err := a.Export(sampleRecords()[:1], config)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error, "could not extract issue ID")
}

func TestBeadsDryRun(t *testing.T) {
	bd := &fakeBd{}
	var buf bytes.Buffer
	config := Config{Writer: &buf, DryRun: true}

	result, err := newFakeBeads(config, bd).Export(sampleRecords(), config)
	require.NoError(t, err)

	assert.Empty(t, bd.calls)
	assert.Equal(t, 5, strings.Count(buf.String(), "[dry-run] bd create"))
	assert.Contains(t, buf.String(), "[dry-run] bd dep add dry-1 blocks dry-4")
	assert.Equal(t, 3, result.Stats.Prompts)
}

func TestBeadsIsAvailable(t *testing.T) {
	a := NewBeadsAdapter(Config{})
	a.run = func(dir string, args ...string) ([]byte, error) { return nil, errors.New("not found") }
	ok, err := a.IsAvailable()
	require.NoError(t, err)
	assert.False(t, ok)

	a.run = (&fakeBd{}).run
	ok, err = a.IsAvailable()
	require.NoError(t, err)
	assert.True(t, ok)
}
