package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonzzz435/garmin-ai-coach/agent"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

func costEntry(tokens int, amount float64, accuracy string) map[string]any {
	entry := map[string]any{
		"agent": "metrics_expert",
		"model": "claude-3-5-haiku",
		"usage": map[string]any{
			"prompt_tokens":     float64(tokens),
			"completion_tokens": float64(tokens / 2),
			"total_tokens":      float64(tokens + tokens/2),
		},
	}
	if accuracy != "" {
		entry["cost"] = map[string]any{
			"amount":   amount,
			"currency": "USD",
			"accuracy": accuracy,
		}
	}
	return entry
}

func TestWriteAllComplete(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)

	state := workflow.NewState(map[string]any{
		agent.KeyMetricsResult:       "## Metrics",
		agent.KeyPhysiologyResult:    "## Physiology",
		agent.KeyActivityResult:      "## Activities",
		agent.KeySynthesisResult:     "## Synthesis",
		agent.KeySeasonPlan:          "## Season",
		agent.KeyPlanningConstraints: "## Constraints",
		agent.KeyWeeklyPlan:          "## Week",
		agent.KeyAnalysisHTML:        "<html><body>analysis</body></html>",
		agent.KeyPlanningHTML:        "<html><body>plan</body></html>",
		agent.KeyPlotStats:           map[string]any{"total_references": float64(2), "resolved": float64(2)},
		agent.KeyCosts: []any{
			costEntry(1000, 0.01, "estimated"),
			costEntry(2000, 0.02, "estimated"),
		},
	})

	summary, err := w.WriteAll(state, "exec_test")
	require.NoError(t, err)

	assert.Equal(t, "exec_test", summary.ExecutionID)
	assert.Len(t, summary.Files, 9)
	assert.Empty(t, summary.Errors)
	assert.InDelta(t, 0.03, summary.Totals.Cost, 1e-9)
	assert.Equal(t, 2, summary.Totals.Requests)
	assert.Equal(t, 4500, summary.Totals.TotalTokens)
	assert.Equal(t, "estimated", summary.Totals.CostAccuracy)
	require.Contains(t, summary.ByAgent, "metrics_expert")
	assert.Equal(t, 2, summary.ByAgent["metrics_expert"].Requests)

	html, err := os.ReadFile(filepath.Join(dir, "analysis.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "analysis")

	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, summary.Files, decoded.Files)
	assert.Equal(t, summary.Totals, decoded.Totals)
	assert.Equal(t, float64(2), decoded.PlotStats["resolved"])
}

func TestWriteAllPartialRun(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)

	// A run cancelled after the expert stage: no synthesis, no HTML.
	state := workflow.NewState(map[string]any{
		agent.KeyMetricsResult: "## Metrics",
		agent.KeyErrors:        []any{"physiology_expert failed: provider unavailable"},
		agent.KeyCosts:         []any{costEntry(500, 0.005, "estimated")},
	})

	summary, err := w.WriteAll(state, "exec_partial")
	require.NoError(t, err)

	assert.Equal(t, []string{"metrics_analysis.md"}, summary.Files)
	assert.Equal(t, []string{"physiology_expert failed: provider unavailable"}, summary.Errors)

	_, err = os.Stat(filepath.Join(dir, "metrics_analysis.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "analysis.html"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "summary.json"))
	assert.NoError(t, err)
}

func TestWriteAllKeepsEarlierArtifactsOnFailure(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)

	// A directory squatting on the artifact name makes that single write fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "analysis.html"), 0o755))

	state := workflow.NewState(map[string]any{
		agent.KeyMetricsResult: "## Metrics",
		agent.KeyAnalysisHTML:  "<html></html>",
	})

	summary, err := w.WriteAll(state, "exec_fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.html")

	// Everything written before the failure stays on disk and in the summary.
	assert.Equal(t, []string{"metrics_analysis.md"}, summary.Files)
	content, readErr := os.ReadFile(filepath.Join(dir, "metrics_analysis.md"))
	require.NoError(t, readErr)
	assert.Equal(t, "## Metrics", string(content))
	_, readErr = os.Stat(filepath.Join(dir, "summary.json"))
	assert.NoError(t, readErr)
}

func TestCostTotals(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		totals := CostTotals(workflow.NewState(map[string]any{}))
		assert.Zero(t, totals.Requests)
		assert.Zero(t, totals.Cost)
		assert.Equal(t, "unavailable", totals.CostAccuracy)
	})

	t.Run("measured", func(t *testing.T) {
		state := workflow.NewState(map[string]any{
			agent.KeyCosts: []any{costEntry(100, 0.001, "measured")},
		})
		totals := CostTotals(state)
		assert.Equal(t, "measured", totals.CostAccuracy)
		assert.InDelta(t, 0.001, totals.Cost, 1e-9)
	})

	t.Run("mixed accuracy collapses to estimated", func(t *testing.T) {
		state := workflow.NewState(map[string]any{
			agent.KeyCosts: []any{
				costEntry(100, 0.001, "measured"),
				costEntry(100, 0.002, "estimated"),
			},
		})
		assert.Equal(t, "estimated", CostTotals(state).CostAccuracy)
	})

	t.Run("missing cost still counts tokens", func(t *testing.T) {
		state := workflow.NewState(map[string]any{
			agent.KeyCosts: []any{costEntry(100, 0, "")},
		})
		totals := CostTotals(state)
		assert.Equal(t, 1, totals.Requests)
		assert.Equal(t, 150, totals.TotalTokens)
		assert.Equal(t, "unavailable", totals.CostAccuracy)
	})
}
