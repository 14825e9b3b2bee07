package output

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	m := NewManager()
	first := m.Register("https://example.com/a.zip")
	second := m.Register("https://example.com/b.zip")
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestCompleteSetsSuccessAndClearsStream(t *testing.T) {
	m := NewManager()
	id := m.Register("https://example.com/a.zip")
	m.AddStreamLine(id, "chunk 1 done")
	m.Complete(id, "")

	info := m.outputs[id]
	require.NotNil(t, info)
	assert.True(t, info.Complete)
	assert.Equal(t, "success", info.Status)
	assert.Empty(t, info.StreamLines)
	assert.Contains(t, info.Message, "example.com/a.zip")
}

func TestReportErrorCollectsForSummary(t *testing.T) {
	m := NewManager()
	id := m.Register("https://example.com/a.zip")
	m.ReportError(id, errors.New("connection reset"))

	require.Len(t, m.errors, 1)
	assert.Equal(t, "https://example.com/a.zip", m.errors[0].URL)
	assert.Equal(t, "error", m.outputs[id].Status)
}

func TestStreamLinesAreCapped(t *testing.T) {
	m := NewManager()
	id := m.Register("https://example.com/a.zip")
	for i := 0; i < 20; i++ {
		m.AddStreamLine(id, "line")
	}
	assert.Len(t, m.outputs[id].StreamLines, m.maxStreams)
}

func TestProgressBarBounds(t *testing.T) {
	empty := ProgressBar(0, 100, 10)
	assert.Contains(t, empty, "0.0%")
	assert.NotContains(t, empty, StyleSymbols["hline"])

	full := ProgressBar(100, 100, 10)
	assert.Contains(t, full, "100.0%")
	assert.Equal(t, 10, strings.Count(full, StyleSymbols["hline"]))

	over := ProgressBar(250, 100, 10)
	assert.Contains(t, over, "100.0%")
}
