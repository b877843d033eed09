package agent

import (
	"context"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/tools"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// Completion keys written by the finalize node.
const (
	KeyAnalysisComplete = "analysis_complete"
	KeyCompletedAt      = "completed_at"
)

// plotResolutionNode replaces [PLOT:id] references in the analysis document
// with the stored chart markup. Storage is rebuilt from the plots kept in
// state so resolution works across a resume.
func (b *Builder) plotResolutionNode() *workflow.Node {
	return &workflow.Node{
		Name:      "plot_resolution",
		DependsOn: []string{"formatter"},
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			if !state.GetBool(KeyPlottingEnabled) {
				return map[string]any{
					KeyPlotStats: map[string]any{
						"total_references": 0,
						"resolved":         0,
						"skipped":          true,
						"reason":           "plotting_disabled",
					},
				}, nil
			}

			html := state.GetString(KeyAnalysisHTML)
			if html == "" {
				return map[string]any{
					KeyErrors: []any{"plot resolution: no HTML content available"},
				}, nil
			}

			storage := tools.NewPlotStorage(b.executionID)
			for _, raw := range state.GetList(KeyPlots) {
				entry, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				plot := tools.Plot{
					ID:          stringValue(entry, "plot_id"),
					Description: stringValue(entry, "description"),
					Agent:       stringValue(entry, "agent"),
					HTML:        stringValue(entry, "html"),
				}
				if err := storage.Store(plot); err != nil {
					b.logger.Warn("skipping unstorable plot entry", "plot_id", plot.ID, "error", err)
				}
			}

			resolved, stats := tools.NewReferenceResolver(storage).Resolve(html)
			b.logger.Info("plot references resolved",
				"total", stats.TotalReferences, "resolved", stats.Resolved, "missing", len(stats.Missing))

			statsMap, err := toJSONMap(stats)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				KeyAnalysisHTML: resolved,
				KeyPlotStats:    statsMap,
			}, nil
		},
	}
}

// finalizeNode marks the run complete once both documents exist.
func (b *Builder) finalizeNode() *workflow.Node {
	return &workflow.Node{
		Name:      "finalize",
		DependsOn: []string{"plot_resolution", "plan_formatter"},
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			b.logger.Info("pipeline complete",
				"llm_calls", len(state.GetList(KeyCosts)),
				"plots", len(state.GetList(KeyPlots)),
				"errors", len(state.GetList(KeyErrors)))
			return map[string]any{
				KeyAnalysisComplete: true,
				KeyCompletedAt:      time.Now().Format(time.RFC3339),
			}, nil
		},
	}
}

func stringValue(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
