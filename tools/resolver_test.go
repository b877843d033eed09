package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReplacesReferences(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	require.NoError(t, storage.Store(Plot{
		ID:          "acwr_trend",
		Description: "ACWR over the last 8 weeks",
		Agent:       "metrics",
		HTML:        `<svg>chart</svg>`,
	}))
	resolver := NewReferenceResolver(storage)

	text := "Load is trending up. [PLOT:acwr_trend] Keep recovery weeks."
	resolved, stats := resolver.Resolve(text)

	assert.Equal(t, 1, stats.TotalReferences)
	assert.Equal(t, 1, stats.Resolved)
	assert.Empty(t, stats.Missing)
	assert.Contains(t, resolved, `<div class="plot-container" id="plot-acwr_trend">`)
	assert.Contains(t, resolved, `<svg>chart</svg>`)
	assert.Contains(t, resolved, "ACWR over the last 8 weeks")
	assert.NotContains(t, resolved, "[PLOT:")
}

func TestResolveMissingPlotGetsVisibleFallback(t *testing.T) {
	resolver := NewReferenceResolver(NewPlotStorage("exec-1"))

	resolved, stats := resolver.Resolve("See [PLOT:never_made] for detail.")

	assert.Equal(t, 1, stats.TotalReferences)
	assert.Equal(t, 0, stats.Resolved)
	assert.Equal(t, []string{"never_made"}, stats.Missing)
	assert.Contains(t, resolved, "plot-fallback")
	assert.Contains(t, resolved, "Plot unavailable")
	assert.NotContains(t, resolved, "[PLOT:")
}

func TestResolveNoReferences(t *testing.T) {
	resolver := NewReferenceResolver(NewPlotStorage("exec-1"))

	text := "Plain analysis with no charts."
	resolved, stats := resolver.Resolve(text)

	assert.Equal(t, text, resolved)
	assert.Zero(t, stats.TotalReferences)
}

func TestResolveMixedReferences(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	require.NoError(t, storage.Store(Plot{ID: "a", Agent: "metrics", HTML: "<svg/>"}))
	resolver := NewReferenceResolver(storage)

	_, stats := resolver.Resolve("[PLOT:a] and [PLOT:b] and [PLOT:a]")

	assert.Equal(t, 3, stats.TotalReferences)
	assert.Equal(t, 2, stats.Resolved)
	assert.Equal(t, []string{"b"}, stats.Missing)
}
