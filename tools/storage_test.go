package tools

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotStorageStoreAndList(t *testing.T) {
	storage := NewPlotStorage("exec-1")

	require.NoError(t, storage.Store(Plot{ID: "acwr_trend", Agent: "metrics"}))
	require.NoError(t, storage.Store(Plot{ID: "hrv_baseline", Agent: "physiology"}))
	require.NoError(t, storage.Store(Plot{ID: "weekly_volume", Agent: "metrics"}))

	plots := storage.List()
	require.Len(t, plots, 3)
	assert.Equal(t, "acwr_trend", plots[0].ID)
	assert.Equal(t, "hrv_baseline", plots[1].ID)
	assert.Equal(t, "weekly_volume", plots[2].ID)
	assert.False(t, plots[0].CreatedAt.IsZero())

	assert.Equal(t, 2, storage.CountByAgent("metrics"))
	assert.Equal(t, 1, storage.CountByAgent("physiology"))
	assert.Equal(t, 0, storage.CountByAgent("activity"))
	assert.Equal(t, []string{"metrics", "physiology"}, storage.Agents())

	plot, ok := storage.Get("hrv_baseline")
	require.True(t, ok)
	assert.Equal(t, "physiology", plot.Agent)
}

func TestPlotStorageRejectsDuplicateID(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	require.NoError(t, storage.Store(Plot{ID: "acwr_trend", Agent: "metrics"}))

	err := storage.Store(Plot{ID: "acwr_trend", Agent: "metrics"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate plot id")

	// The original plot survives.
	assert.Len(t, storage.List(), 1)
}

func TestPlotStorageRejectsEmptyID(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	require.Error(t, storage.Store(Plot{Agent: "metrics"}))
}

func TestGeneratePlotIDUnique(t *testing.T) {
	storage := NewPlotStorage("exec-1")
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := storage.GeneratePlotID("metrics")
		assert.False(t, seen[id], fmt.Sprintf("id %s repeated", id))
		seen[id] = true
		assert.Contains(t, id, "metrics_")
	}
}
