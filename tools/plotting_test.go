package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plotArgs(t *testing.T, id string) string {
	t.Helper()
	script := fmt.Sprintf(`plot({
    "id": %q,
    "title": "Weekly Load",
    "type": "bar",
    "labels": ["W1", "W2"],
    "series": [{"name": "hours", "values": [8, 10]}],
})`, id)
	raw, err := json.Marshal(map[string]string{
		"script":      script,
		"description": "Training hours per week",
	})
	require.NoError(t, err)
	return string(raw)
}

func TestPlottingToolStoresPlot(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	tool := NewPlottingTool(storage, NewChartExecutor(), "metrics", nil)

	result := tool.Invoke(context.Background(), plotArgs(t, "weekly_hours"))
	assert.Contains(t, result, "[PLOT:weekly_hours]")

	plot, ok := storage.Get("weekly_hours")
	require.True(t, ok)
	assert.Equal(t, "metrics", plot.Agent)
	assert.Equal(t, "Training hours per week", plot.Description)
	assert.Contains(t, plot.HTML, "<svg")
}

func TestPlottingToolEnforcesCap(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	tool := NewPlottingTool(storage, NewChartExecutor(), "metrics", nil)

	for i := 0; i < maxPlotsPerAgent; i++ {
		result := tool.Invoke(context.Background(), plotArgs(t, fmt.Sprintf("chart_%d", i)))
		assert.Contains(t, result, "Plot stored")
	}

	result := tool.Invoke(context.Background(), plotArgs(t, "one_too_many"))
	assert.Contains(t, result, "Plot limit reached")
	_, ok := storage.Get("one_too_many")
	assert.False(t, ok)

	// Another agent is unaffected by this agent's cap.
	other := NewPlottingTool(storage, NewChartExecutor(), "physiology", nil)
	result = other.Invoke(context.Background(), plotArgs(t, "recovery_chart"))
	assert.Contains(t, result, "Plot stored")
}

func TestPlottingToolScriptErrorIsGuidance(t *testing.T) {
	tool := NewPlottingTool(NewPlotStorage("exec-1"), NewChartExecutor(), "metrics", nil)

	raw, err := json.Marshal(map[string]string{
		"script":      "plot({",
		"description": "broken",
	})
	require.NoError(t, err)

	result := tool.Invoke(context.Background(), string(raw))
	assert.Contains(t, result, "syntax error")
}

func TestPlottingToolMissingArguments(t *testing.T) {
	tool := NewPlottingTool(NewPlotStorage("exec-1"), NewChartExecutor(), "metrics", nil)

	result := tool.Invoke(context.Background(), `{"description": "no script"}`)
	assert.Contains(t, result, "missing required parameter 'script'")

	result = tool.Invoke(context.Background(), `{"script": "plot({})"}`)
	assert.Contains(t, result, "missing required parameter 'description'")

	result = tool.Invoke(context.Background(), `not json`)
	assert.Contains(t, result, "not valid JSON")
}

func TestPlottingToolDuplicateIDIsGuidance(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	tool := NewPlottingTool(storage, NewChartExecutor(), "metrics", nil)

	assert.Contains(t, tool.Invoke(context.Background(), plotArgs(t, "same")), "Plot stored")
	result := tool.Invoke(context.Background(), plotArgs(t, "same"))
	assert.Contains(t, result, "duplicate plot id")
	assert.Contains(t, result, "unique id")
}

func TestPlottingToolDefinition(t *testing.T) {
	tool := NewPlottingTool(NewPlotStorage("exec-1"), NewChartExecutor(), "metrics", nil)

	def := tool.Definition()
	assert.Equal(t, "create_plot", def.Name)
	assert.Contains(t, def.Description, "plot(spec)")
	props := def.InputSchema["properties"].(map[string]any)
	assert.Contains(t, props, "script")
	assert.Contains(t, props, "description")
}
