package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCost(t *testing.T) {
	usage := TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000, TotalTokens: 1_500_000}

	cost := CalculateCost("claude-sonnet-4-0", usage)
	require.NotNil(t, cost)
	assert.Equal(t, CostEstimated, cost.Accuracy)
	assert.Equal(t, "USD", cost.Currency)
	assert.InDelta(t, 3.00+7.50, cost.Amount, 1e-9)
}

func TestCalculateCostDatedModelFallsBack(t *testing.T) {
	usage := TokenUsage{PromptTokens: 2_000_000}

	cost := CalculateCost("claude-3-5-haiku-20241022", usage)
	require.NotNil(t, cost)
	assert.Equal(t, CostEstimated, cost.Accuracy)
	assert.InDelta(t, 1.60, cost.Amount, 1e-9)
}

func TestCalculateCostUnknownModel(t *testing.T) {
	cost := CalculateCost("totally-made-up-model", TokenUsage{PromptTokens: 100})
	require.NotNil(t, cost)
	assert.Equal(t, CostUnavailable, cost.Accuracy)
	assert.Zero(t, cost.Amount)
}

func TestCostTrackerAggregates(t *testing.T) {
	tracker := NewCostTracker()
	now := time.Now()

	tracker.Track(CostRecord{
		RequestID: "r1",
		Agent:     "metrics_expert",
		Model:     "claude-sonnet-4-0",
		Timestamp: now,
		Usage:     TokenUsage{PromptTokens: 1000, CompletionTokens: 200, TotalTokens: 1200},
		Cost:      &CostInfo{Amount: 0.01, Currency: "USD", Accuracy: CostEstimated},
	})
	tracker.Track(CostRecord{
		RequestID: "r2",
		Agent:     "metrics_expert",
		Model:     "claude-sonnet-4-0",
		Timestamp: now,
		Usage:     TokenUsage{PromptTokens: 500, CompletionTokens: 100, TotalTokens: 600},
		Cost:      &CostInfo{Amount: 0.005, Currency: "USD", Accuracy: CostEstimated},
	})
	tracker.Track(CostRecord{
		RequestID: "r3",
		Agent:     "synthesis",
		Model:     "unknown-model",
		Timestamp: now,
		Usage:     TokenUsage{PromptTokens: 300, CompletionTokens: 50, TotalTokens: 350},
	})

	total := tracker.Total()
	assert.Equal(t, 3, total.TotalRequests)
	assert.Equal(t, 2150, total.TotalTokens)
	assert.InDelta(t, 0.015, total.TotalCost, 1e-9)
	assert.Equal(t, CostEstimated, total.Accuracy)

	byAgent := tracker.AggregateByAgent()
	require.Len(t, byAgent, 2)
	assert.Equal(t, 2, byAgent["metrics_expert"].TotalRequests)
	assert.Equal(t, CostEstimated, byAgent["metrics_expert"].Accuracy)
	assert.Equal(t, CostUnavailable, byAgent["synthesis"].Accuracy)

	byModel := tracker.AggregateByModel()
	require.Len(t, byModel, 2)
	assert.InDelta(t, 0.015, byModel["claude-sonnet-4-0"].TotalCost, 1e-9)
}

func TestCostTrackerEmpty(t *testing.T) {
	tracker := NewCostTracker()
	total := tracker.Total()
	assert.Zero(t, total.TotalRequests)
	assert.Equal(t, CostUnavailable, total.Accuracy)
	assert.Empty(t, tracker.Records())
}
