package agent

import (
	"context"
	"fmt"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/leonzzz435/garmin-ai-coach/workflow"
)

// Summarizers compact one slice of the Garmin record into structured text
// for the downstream expert. They never call tools, and a failure degrades
// to an empty summary plus an error entry rather than aborting the run.

func extractMetricsData(state *workflow.State) any {
	data := state.GetMap(KeyGarminData)
	return map[string]any{
		"training_load_history": data["training_load_history"],
		"vo2_max_history":       data["vo2_max_history"],
		"training_status":       data["training_status"],
	}
}

func extractPhysiologyData(state *workflow.State) any {
	data := state.GetMap(KeyGarminData)
	return map[string]any{
		"physiological_markers": data["physiological_markers"],
		"recovery_indicators":   data["recovery_indicators"],
		"body_metrics":          data["body_metrics"],
		"daily_stats":           data["daily_stats"],
	}
}

func extractActivityData(state *workflow.State) any {
	data := state.GetMap(KeyGarminData)
	return map[string]any{
		"recent_activities": data["recent_activities"],
		"user_profile":      data["user_profile"],
	}
}

func (b *Builder) summarizerNode(name string, extract func(*workflow.State) any, outputKey, personaKey string) *workflow.Node {
	return &workflow.Node{
		Name:  name,
		Retry: defaultLLMRetry,
		Func: func(ctx context.Context, state *workflow.State) (map[string]any, error) {
			persona, err := b.personas.Get(personaKey)
			if err != nil {
				return nil, err
			}
			user := renderPrompt(persona.User, map[string]string{
				"data": mustJSON(extract(state)),
			})

			resp, record, err := b.complete(ctx, name, RoleSummarizer, llm.CompletionRequest{
				System:   persona.System,
				Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
			})
			if err != nil {
				return nil, err
			}

			b.logger.Info("summary produced", "node", name, "tokens", resp.Usage.TotalTokens)
			return map[string]any{
				outputKey: resp.Content,
				KeyCosts:  costEntries([]*llm.CostRecord{record}),
			}, nil
		},
		Fallback: func(ctx context.Context, state *workflow.State, err error) map[string]any {
			return map[string]any{
				outputKey: "",
				KeyErrors: []any{fmt.Sprintf("%s failed: %v", name, err)},
			}
		},
	}
}
