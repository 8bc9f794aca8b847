package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleRecords())

	for _, want := range []string{"STAGE", "CATEGORY", "Brand and Purpose", "1 Core Features", "2 User Interface", "infrastructure"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Database Schema"), strings.Index(out, "Dashboard Layout"))
}

func TestTableAdapterExport(t *testing.T) {
	var buf bytes.Buffer
	config := Config{Writer: &buf}

	result, err := NewTableAdapter().Export(sampleRecords(), config)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Dashboard Layout")
	require.Len(t, result.Created, 3)
	assert.Equal(t, "3", result.Created[2].ExternalID)
}
